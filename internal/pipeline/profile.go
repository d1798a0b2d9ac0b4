package pipeline

// LanguageProfile tells generation which file names to promise and tells
// verification how to lay out and check the code.
type LanguageProfile struct {
	Name          string   `mapstructure:"name" yaml:"name"`
	CodeFile      string   `mapstructure:"code_file" yaml:"code_file"`
	TestFile      string   `mapstructure:"test_file" yaml:"test_file"`
	ModuleName    string   `mapstructure:"module_name" yaml:"module_name"`
	TestFramework string   `mapstructure:"test_framework" yaml:"test_framework"`
	TestCommand   []string `mapstructure:"test_command" yaml:"test_command"`
	LintPrimary   []string `mapstructure:"lint_primary" yaml:"lint_primary"`
	LintFallback  []string `mapstructure:"lint_fallback" yaml:"lint_fallback"`
}

const LanguagePython = "python"

// PythonProfile runs pytest and pylint (errors and fatals only) with flake8
// as the fallback analyzer.
func PythonProfile() LanguageProfile {
	return LanguageProfile{
		Name:          LanguagePython,
		CodeFile:      "solution.py",
		TestFile:      "test_solution.py",
		ModuleName:    "solution",
		TestFramework: "pytest",
		TestCommand:   []string{"python3", "-m", "pytest", "-q", "test_solution.py"},
		LintPrimary:   []string{"pylint", "--disable=all", "--enable=E,F", "--score=n", "solution.py"},
		LintFallback:  []string{"flake8", "solution.py"},
	}
}
