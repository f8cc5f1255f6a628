package gitrepo

import (
	gitconfig "github.com/go-git/go-git/v5/config"

	"github.com/gitcontribs/gitcontribs/internal/models"
)

// ResolveUser reads user.name and user.email from the global git
// configuration file (~/.gitconfig and the XDG location), without spawning
// a git process. Unset fields come back as the "Unknown" sentinel; identity
// resolution is best-effort and never returns an error.
func ResolveUser() models.User {
	cfg, err := gitconfig.LoadConfig(gitconfig.GlobalScope)
	if err != nil {
		return models.User{Name: models.Unknown, Email: models.Unknown}
	}

	user := models.User{
		Name:  cfg.User.Name,
		Email: cfg.User.Email,
	}
	if user.Name == "" {
		user.Name = models.Unknown
	}
	if user.Email == "" {
		user.Email = models.Unknown
	}
	return user
}

// GlobalConfigPaths lists the candidate global config files in the order
// they are consulted; the first one that exists wins.
func GlobalConfigPaths() []string {
	paths, err := gitconfig.Paths(gitconfig.GlobalScope)
	if err != nil {
		return nil
	}
	return paths
}
