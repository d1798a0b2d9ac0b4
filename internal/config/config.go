package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/clarify-verify/internal/clarify"
	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/prompts"
	"github.com/temirov/clarify-verify/internal/verify"
)

const (
	// EnvironmentPrefix prefixes environment overrides, e.g.
	// CLARIFY_VERIFY_PIPELINE_MAX_ITERATIONS.
	EnvironmentPrefix = "CLARIFY_VERIFY"

	emptyModelsErrorMessage                  = "config.models is empty"
	missingDefaultModelErrorMessage          = "no default model found (set models[].default: true)"
	multipleDefaultModelsErrorFormat         = "more than one default model: %s"
	rootConfigurationEmptyContentErrorFormat = "root configuration %s is empty"
	rootConfigurationReadErrorFormat         = "read root configuration %s: %w"
	rootConfigurationUnmarshalErrorFormat    = "unmarshal root configuration %s: %w"
	invalidValueErrorFormat                  = "%s: %w"
	unknownLanguageErrorFormat               = "pipeline.language %q has no profile in verify.languages"

	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

var (
	ErrInvalidIterations  = errors.New("must be at least 1")
	ErrInvalidPolicy      = errors.New("must be one of fail, pass")
	ErrInvalidAnswerMode  = errors.New("must be one of simulate, interactive, none")
	ErrInvalidLogFormat   = errors.New("must be one of console, json")
	ErrInvalidQuestionCap = errors.New("must not be negative")
)

type Root struct {
	Common   Common                      `mapstructure:"common" yaml:"common"`
	Models   []Model                     `mapstructure:"models" yaml:"models"`
	Pipeline Pipeline                    `mapstructure:"pipeline" yaml:"pipeline"`
	Verify   Verify                      `mapstructure:"verify" yaml:"verify"`
	Prompts  map[string]prompts.Template `mapstructure:"prompts" yaml:"prompts,omitempty"`
}

type Common struct {
	API struct {
		Endpoint          string  `mapstructure:"endpoint" yaml:"endpoint"`
		APIKeyEnv         string  `mapstructure:"api_key_env" yaml:"api_key_env"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	} `mapstructure:"api" yaml:"api"`
	Logging struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"logging" yaml:"logging"`
	Defaults struct {
		TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"defaults" yaml:"defaults"`
}

type Model struct {
	Name                string  `mapstructure:"name" yaml:"name"`
	Provider            string  `mapstructure:"provider" yaml:"provider"`
	ModelID             string  `mapstructure:"model_id" yaml:"model_id"`
	Endpoint            string  `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Default             bool    `mapstructure:"default" yaml:"default"`
	SupportsTemperature bool    `mapstructure:"supports_temperature" yaml:"supports_temperature"`
	DefaultTemperature  float64 `mapstructure:"default_temperature" yaml:"default_temperature"`
	MaxCompletionTokens int     `mapstructure:"max_completion_tokens" yaml:"max_completion_tokens"`
}

type Pipeline struct {
	UseClarification      bool     `mapstructure:"use_clarification" yaml:"use_clarification"`
	ClarifierMaxQuestions int      `mapstructure:"clarifier_max_questions" yaml:"clarifier_max_questions"`
	GenerateUML           bool     `mapstructure:"generate_uml" yaml:"generate_uml"`
	DesignKinds           []string `mapstructure:"design_kinds" yaml:"design_kinds"`
	MaxIterations         int      `mapstructure:"max_iterations" yaml:"max_iterations"`
	Language              string   `mapstructure:"language" yaml:"language"`
	AnswerMode            string   `mapstructure:"answer_mode" yaml:"answer_mode"`
	SummaryLimit          int      `mapstructure:"summary_limit" yaml:"summary_limit"`
}

type Verify struct {
	RunTests         bool                                `mapstructure:"run_tests" yaml:"run_tests"`
	RunLinter        bool                                `mapstructure:"run_linter" yaml:"run_linter"`
	RunFormal        bool                                `mapstructure:"run_formal" yaml:"run_formal"`
	Parallel         bool                                `mapstructure:"parallel" yaml:"parallel"`
	EmptyTestsPolicy string                              `mapstructure:"empty_tests_policy" yaml:"empty_tests_policy"`
	TimeoutSeconds   int                                 `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Languages        map[string]pipeline.LanguageProfile `mapstructure:"languages" yaml:"languages,omitempty"`
}

var defaultValues = map[string]any{
	"common.api.endpoint":              "https://api.openai.com/v1",
	"common.api.api_key_env":           "OPENAI_API_KEY",
	"common.api.requests_per_second":   0,
	"common.logging.level":             "info",
	"common.logging.format":            LogFormatConsole,
	"common.defaults.timeout_seconds":  120,
	"pipeline.use_clarification":       true,
	"pipeline.clarifier_max_questions": 5,
	"pipeline.generate_uml":            true,
	"pipeline.design_kinds":            []string{pipeline.DesignKindSequence},
	"pipeline.max_iterations":          3,
	"pipeline.language":                pipeline.LanguagePython,
	"pipeline.answer_mode":             clarify.AnswerModeSimulate,
	"pipeline.summary_limit":           4000,
	"verify.run_tests":                 true,
	"verify.run_linter":                true,
	"verify.run_formal":                false,
	"verify.parallel":                  false,
	"verify.empty_tests_policy":        verify.EmptyTestsFail,
	"verify.timeout_seconds":           30,
}

// LoadRoot parses the provided configuration source, applies defaults and
// CLARIFY_VERIFY_* environment overrides, and validates the result.
func LoadRoot(source RootConfigurationSource) (Root, error) {
	if len(source.Content) == 0 {
		return Root{}, fmt.Errorf(rootConfigurationEmptyContentErrorFormat, source.Reference)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaultValues {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvironmentPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadConfig(bytes.NewReader(source.Content)); err != nil {
		return Root{}, fmt.Errorf(rootConfigurationReadErrorFormat, source.Reference, err)
	}

	var rootConfiguration Root
	if err := v.Unmarshal(&rootConfiguration); err != nil {
		return Root{}, fmt.Errorf(rootConfigurationUnmarshalErrorFormat, source.Reference, err)
	}
	if err := rootConfiguration.Validate(); err != nil {
		return Root{}, err
	}
	return rootConfiguration, nil
}

// Validate checks the invariants LoadRoot guarantees.
func (root Root) Validate() error {
	if len(root.Models) == 0 {
		return errors.New(emptyModelsErrorMessage)
	}
	var defaults []string
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.Default {
			defaults = append(defaults, modelConfiguration.Name)
		}
	}
	switch {
	case len(defaults) == 0:
		return errors.New(missingDefaultModelErrorMessage)
	case len(defaults) > 1:
		return fmt.Errorf(multipleDefaultModelsErrorFormat, strings.Join(defaults, ", "))
	}
	if root.Pipeline.MaxIterations < 1 {
		return fmt.Errorf(invalidValueErrorFormat, "pipeline.max_iterations", ErrInvalidIterations)
	}
	if root.Pipeline.ClarifierMaxQuestions < 0 {
		return fmt.Errorf(invalidValueErrorFormat, "pipeline.clarifier_max_questions", ErrInvalidQuestionCap)
	}
	switch root.Pipeline.AnswerMode {
	case clarify.AnswerModeSimulate, clarify.AnswerModeInteractive, clarify.AnswerModeNone:
	default:
		return fmt.Errorf(invalidValueErrorFormat, "pipeline.answer_mode", ErrInvalidAnswerMode)
	}
	switch root.Verify.EmptyTestsPolicy {
	case verify.EmptyTestsFail, verify.EmptyTestsPass:
	default:
		return fmt.Errorf(invalidValueErrorFormat, "verify.empty_tests_policy", ErrInvalidPolicy)
	}
	switch root.Common.Logging.Format {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf(invalidValueErrorFormat, "common.logging.format", ErrInvalidLogFormat)
	}
	if _, err := root.LanguageProfile(); err != nil {
		return err
	}
	return nil
}

func (root Root) DefaultModel() (Model, bool) {
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.Default {
			return modelConfiguration, true
		}
	}
	return Model{}, false
}

func (root Root) FindModel(name string) (Model, bool) {
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.Name == name {
			return modelConfiguration, true
		}
	}
	return Model{}, false
}

// LanguageProfile resolves pipeline.language against verify.languages, with
// python built in.
func (root Root) LanguageProfile() (pipeline.LanguageProfile, error) {
	language := strings.ToLower(strings.TrimSpace(root.Pipeline.Language))
	if profile, ok := root.Verify.Languages[language]; ok {
		if profile.Name == "" {
			profile.Name = language
		}
		return profile, nil
	}
	if language == pipeline.LanguagePython || language == "" {
		return pipeline.PythonProfile(), nil
	}
	return pipeline.LanguageProfile{}, fmt.Errorf(unknownLanguageErrorFormat, root.Pipeline.Language)
}

func (root Root) BackendTimeout() time.Duration {
	return time.Duration(root.Common.Defaults.TimeoutSeconds) * time.Second
}

func (root Root) OracleTimeout() time.Duration {
	return time.Duration(root.Verify.TimeoutSeconds) * time.Second
}
