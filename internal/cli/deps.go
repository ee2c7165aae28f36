package cli

import (
	"github.com/spf13/cobra"

	"github.com/sripwoud/cza/internal/pipeline"
	"github.com/sripwoud/cza/internal/scaffold"
	"github.com/sripwoud/cza/internal/templates"
	"github.com/sripwoud/cza/internal/ui"
	"github.com/sripwoud/cza/internal/updater"
)

// Collaborators are built through these so tests can substitute fakes.
var (
	loadRegistry = templates.Default
	newRenderer  = func() scaffold.Renderer { return scaffold.New() }
	newExecutor  = func() pipeline.Executor { return pipeline.NewExecutor() }
	newUpdater   = func(opts ...updater.Option) *updater.Updater { return updater.New(buildVersion, opts...) }
	newPrinter   = func(cmd *cobra.Command) *ui.Printer { return ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr()) }
)
