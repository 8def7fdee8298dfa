package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the mediaid directory structure
type Paths struct {
	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a Paths rooted at the user's home directory
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns the base directory (~/.mediaid)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns the config file path (~/.mediaid/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// LogDir returns the log directory (~/.mediaid/logs)
func (p *Paths) LogDir() string {
	return filepath.Join(p.BaseDir(), "logs")
}

// LogPath returns a path within the log directory. Absolute names are
// returned unchanged.
func (p *Paths) LogPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.LogDir(), name)
}

// EnsureLogDir creates the log directory if it doesn't exist
func (p *Paths) EnsureLogDir() error {
	return os.MkdirAll(p.LogDir(), 0755)
}
