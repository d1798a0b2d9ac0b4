package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// EmbeddedRootConfigurationReference identifies the built-in fallback configuration.
	EmbeddedRootConfigurationReference = "embedded default configuration"
	// HomeConfigurationDirectory is the per-user directory searched under $HOME.
	HomeConfigurationDirectory = ".clarify-verify"

	explicitConfigurationReadErrorFormat = "read explicit configuration %s: %w"
	workingDirectoryErrorFormat          = "determine working directory: %w"
	homeEnvironmentVariableName          = "HOME"
	configurationFileName                = "config.yaml"
)

//go:embed default_root_configuration.yaml
var embeddedRootConfiguration []byte

// RootConfigurationSource holds raw configuration bytes and where they came from.
type RootConfigurationSource struct {
	Reference string
	Content   []byte
}

// RootConfigurationLoader searches, in order: an explicit path, ./config.yaml,
// $HOME/.clarify-verify/config.yaml, then the embedded default.
type RootConfigurationLoader struct {
	workingDirectory string
	homeDirectory    string
	readFile         func(string) ([]byte, error)
}

func NewRootConfigurationLoader(workingDirectory string, homeDirectory string) RootConfigurationLoader {
	return RootConfigurationLoader{
		workingDirectory: workingDirectory,
		homeDirectory:    homeDirectory,
		readFile:         os.ReadFile,
	}
}

// NewDefaultRootConfigurationLoader uses the process working directory and HOME.
func NewDefaultRootConfigurationLoader() (RootConfigurationLoader, error) {
	workingDirectory, err := os.Getwd()
	if err != nil {
		return RootConfigurationLoader{}, fmt.Errorf(workingDirectoryErrorFormat, err)
	}
	return NewRootConfigurationLoader(workingDirectory, os.Getenv(homeEnvironmentVariableName)), nil
}

type searchCandidate struct {
	path     string
	explicit bool
}

// Load returns the first readable source. A missing or unreadable explicit
// path falls through; any other read error on it is returned.
func (loader RootConfigurationLoader) Load(explicitPath string) (RootConfigurationSource, error) {
	for _, candidate := range loader.searchPath(explicitPath) {
		if candidate.path == "" {
			continue
		}
		content, err := loader.readFile(candidate.path)
		if err == nil {
			return RootConfigurationSource{Reference: candidate.path, Content: content}, nil
		}
		if candidate.explicit && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrPermission) {
			return RootConfigurationSource{}, fmt.Errorf(explicitConfigurationReadErrorFormat, candidate.path, err)
		}
	}
	return RootConfigurationSource{Reference: EmbeddedRootConfigurationReference, Content: embeddedRootConfiguration}, nil
}

// Embedded returns the built-in configuration source.
func Embedded() RootConfigurationSource {
	return RootConfigurationSource{Reference: EmbeddedRootConfigurationReference, Content: embeddedRootConfiguration}
}

func (loader RootConfigurationLoader) searchPath(explicitPath string) []searchCandidate {
	candidates := []searchCandidate{{path: explicitPath, explicit: explicitPath != ""}}
	if loader.workingDirectory != "" {
		candidates = append(candidates, searchCandidate{path: filepath.Join(loader.workingDirectory, configurationFileName)})
	}
	if loader.homeDirectory != "" {
		candidates = append(candidates, searchCandidate{path: filepath.Join(loader.homeDirectory, HomeConfigurationDirectory, configurationFileName)})
	}
	return candidates
}
