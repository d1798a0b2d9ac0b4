package verify

import (
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

// Settings selects and configures oracles.
type Settings struct {
	RunTests    bool
	RunLinter   bool
	RunFormal   bool
	Timeout     time.Duration
	EmptyPolicy string
	Profile     pipeline.LanguageProfile
	Runner      CommandRunner
	Fs          afero.Fs
}

type Factory func(Settings) Oracle

type Registry struct{ oracles map[string]Factory }

func NewRegistry() *Registry { return &Registry{oracles: map[string]Factory{}} }

// NewDefaultRegistry knows the tests, linter and formal oracles.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(pipeline.OracleTests, func(s Settings) Oracle {
		return TestOracle{Runner: s.Runner, Fs: s.Fs, Profile: s.Profile, Timeout: s.Timeout, EmptyPolicy: s.EmptyPolicy}
	})
	registry.Register(pipeline.OracleLinter, func(s Settings) Oracle {
		return LintOracle{Runner: s.Runner, Fs: s.Fs, Profile: s.Profile, Timeout: s.Timeout}
	})
	registry.Register(pipeline.OracleFormal, func(Settings) Oracle { return FormalOracle{} })
	return registry
}

func (r *Registry) Register(name string, factory Factory) { r.oracles[name] = factory }

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.oracles))
	for k := range r.oracles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Create(name string, settings Settings) (Oracle, bool) {
	f, ok := r.oracles[name]
	if !ok {
		return nil, false
	}
	return f(settings), true
}

// Enabled builds the enabled oracles in report order: tests, linter, formal.
func (r *Registry) Enabled(settings Settings) []Oracle {
	if settings.Runner == nil {
		settings.Runner = ExecRunner{}
	}
	if settings.Fs == nil {
		settings.Fs = afero.NewOsFs()
	}
	if settings.Profile.Name == "" {
		settings.Profile = pipeline.PythonProfile()
	}
	toggles := []struct {
		name    string
		enabled bool
	}{
		{pipeline.OracleTests, settings.RunTests},
		{pipeline.OracleLinter, settings.RunLinter},
		{pipeline.OracleFormal, settings.RunFormal},
	}
	var oracles []Oracle
	for _, toggle := range toggles {
		if !toggle.enabled {
			continue
		}
		if oracle, ok := r.Create(toggle.name, settings); ok {
			oracles = append(oracles, oracle)
		}
	}
	return oracles
}
