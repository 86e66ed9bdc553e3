package repository

import (
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// ConfigRepository defines the interface for loading configuration files.
type ConfigRepository interface {
	// LoadConfigFile merges the file over the built-in defaults. An empty
	// path returns the defaults with environment overrides applied.
	LoadConfigFile(filePath string) (*types.Config, error)
}
