package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listDetailed bool
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available templates",
	Args:    usageArgs(cobra.NoArgs),
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listDetailed, "detailed", "d", false, "Show titles, tags, and sources")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	if listJSON {
		data, err := json.MarshalIndent(reg.List(), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	return newPrinter(cmd).PrintTemplates(reg.List(), listDetailed)
}
