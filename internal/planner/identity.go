package planner

import (
	"github.com/charmbracelet/log"
	gitconfig "github.com/go-git/go-git/v5/config"
)

// GitIdentity reads user.name and user.email from the global git config.
// Missing or unreadable config yields empty strings.
func GitIdentity() (name, email string) {
	cfg, err := gitconfig.LoadConfig(gitconfig.GlobalScope)
	if err != nil {
		log.Debug("Could not read global git config", "error", err)
		return "", ""
	}
	return cfg.User.Name, cfg.User.Email
}
