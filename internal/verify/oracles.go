package verify

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

const (
	EmptyTestsFail = "fail"
	EmptyTestsPass = "pass"

	noTestsDiagnostic         = "no tests available"
	noTestsOptionalDiagnostic = "no tests available (tests optional)"
	formalDiagnostic          = "not implemented"
	formalWarning             = "formal verification requires additional configuration"
	lintFallbackNote          = "primary analyzer unavailable, used "
)

// TestOracle runs the profile's test command against code and tests written
// into a fresh workspace.
type TestOracle struct {
	Runner      CommandRunner
	Fs          afero.Fs
	Profile     pipeline.LanguageProfile
	Timeout     time.Duration
	EmptyPolicy string
}

func (o TestOracle) Name() string { return pipeline.OracleTests }

func (o TestOracle) Run(ctx context.Context, code string, tests string) (Verdict, error) {
	if strings.TrimSpace(tests) == "" {
		if o.EmptyPolicy == EmptyTestsPass {
			return Verdict{Passed: true, Diagnostic: noTestsOptionalDiagnostic}, nil
		}
		return Verdict{Passed: false, Diagnostic: noTestsDiagnostic, Errors: []string{noTestsDiagnostic}}, nil
	}
	if len(o.Profile.TestCommand) == 0 {
		return unavailable(o.Name(), "test command"), nil
	}
	if _, err := o.Runner.LookPath(o.Profile.TestCommand[0]); err != nil {
		return unavailable(o.Name(), o.Profile.TestCommand[0]), nil
	}

	workspace, err := NewWorkspace(o.Fs)
	if err != nil {
		return Verdict{}, err
	}
	defer func() { _ = workspace.Remove() }()
	if err := workspace.Write(o.Profile.CodeFile, code); err != nil {
		return Verdict{}, err
	}
	if err := workspace.Write(o.Profile.TestFile, tests); err != nil {
		return Verdict{}, err
	}

	verdict, _, err := commandStep{
		runner:  o.Runner,
		dir:     workspace.Dir,
		argv:    o.Profile.TestCommand,
		timeout: o.Timeout,
		parser:  PytestParser{},
	}.run(ctx)
	return verdict, err
}

// LintOracle runs the primary static analyzer, or the fallback when the
// primary is not installed.
type LintOracle struct {
	Runner  CommandRunner
	Fs      afero.Fs
	Profile pipeline.LanguageProfile
	Timeout time.Duration
}

func (o LintOracle) Name() string { return pipeline.OracleLinter }

func (o LintOracle) Run(ctx context.Context, code string, _ string) (Verdict, error) {
	argv, parser, fallback := o.selectAnalyzer()
	if argv == nil {
		return unavailable(o.Name(), o.toolNames()...), nil
	}

	workspace, err := NewWorkspace(o.Fs)
	if err != nil {
		return Verdict{}, err
	}
	defer func() { _ = workspace.Remove() }()
	if err := workspace.Write(o.Profile.CodeFile, code); err != nil {
		return Verdict{}, err
	}

	verdict, exitCode, err := commandStep{
		runner:  o.Runner,
		dir:     workspace.Dir,
		argv:    argv,
		timeout: o.Timeout,
		parser:  parser,
	}.run(ctx)
	if err != nil {
		return verdict, err
	}
	if _, isPylint := parser.(PylintParser); isPylint && exitCode >= 0 {
		// pylint's exit status is a bit mask; only fatal, error and usage bits fail.
		verdict.Passed = len(verdict.Errors) == 0 && exitCode&(1|2|32) == 0
	}
	if fallback {
		verdict.Warnings = append(verdict.Warnings, lintFallbackNote+argv[0])
	}
	return verdict, nil
}

func (o LintOracle) selectAnalyzer() ([]string, Parser, bool) {
	if len(o.Profile.LintPrimary) > 0 {
		if _, err := o.Runner.LookPath(o.Profile.LintPrimary[0]); err == nil {
			return o.Profile.LintPrimary, parserFor(o.Profile.LintPrimary[0]), false
		}
	}
	if len(o.Profile.LintFallback) > 0 {
		if _, err := o.Runner.LookPath(o.Profile.LintFallback[0]); err == nil {
			return o.Profile.LintFallback, parserFor(o.Profile.LintFallback[0]), true
		}
	}
	return nil, nil, false
}

func (o LintOracle) toolNames() []string {
	var names []string
	if len(o.Profile.LintPrimary) > 0 {
		names = append(names, o.Profile.LintPrimary[0])
	}
	if len(o.Profile.LintFallback) > 0 {
		names = append(names, o.Profile.LintFallback[0])
	}
	if len(names) == 0 {
		names = append(names, "static analyzer")
	}
	return names
}

func parserFor(tool string) Parser {
	switch tool {
	case "pylint":
		return PylintParser{}
	case "flake8":
		return Flake8Parser{}
	default:
		return Flake8Parser{}
	}
}

// FormalOracle is a placeholder that always passes.
type FormalOracle struct{}

func (FormalOracle) Name() string { return pipeline.OracleFormal }

func (FormalOracle) Run(context.Context, string, string) (Verdict, error) {
	return Verdict{Passed: true, Diagnostic: formalDiagnostic, Warnings: []string{formalWarning}}, nil
}
