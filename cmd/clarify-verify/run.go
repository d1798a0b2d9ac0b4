package clarifyverify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/clarify-verify/internal/clarify"
	"github.com/temirov/clarify-verify/internal/config"
	"github.com/temirov/clarify-verify/internal/dataset"
	"github.com/temirov/clarify-verify/internal/design"
	"github.com/temirov/clarify-verify/internal/fsops"
	"github.com/temirov/clarify-verify/internal/generate"
	"github.com/temirov/clarify-verify/internal/llm"
	"github.com/temirov/clarify-verify/internal/orchestrator"
	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/prompts"
	"github.com/temirov/clarify-verify/internal/results"
	"github.com/temirov/clarify-verify/internal/store"
	"github.com/temirov/clarify-verify/internal/telemetry"
	"github.com/temirov/clarify-verify/internal/verify"
)

type runCommandOptions struct {
	configPath    string
	requirement   string
	datasetPath   string
	outputDir     string
	modelName     string
	maxIterations int
	clarify       bool
	uml           bool
	interactive   bool
	workers       int
	ledgerPath    string
	metricsPath   string
}

func newRunCommand() *cobra.Command {
	options := &runCommandOptions{
		outputDir: defaultOutputDir,
		workers:   defaultWorkerCount,
		clarify:   true,
		uml:       true,
	}
	command := &cobra.Command{
		Use:   runCommandUse,
		Short: runCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipelineCommand(cmd, *options)
		},
	}

	flags := command.Flags()
	flags.StringVar(&options.configPath, configFlagName, "", configFlagUsage)
	flags.StringVar(&options.requirement, requirementFlagName, "", requirementFlagUsage)
	flags.StringVar(&options.datasetPath, datasetFlagName, "", datasetFlagUsage)
	flags.StringVar(&options.outputDir, outdirFlagName, defaultOutputDir, outdirFlagUsage)
	flags.StringVar(&options.modelName, modelFlagName, "", modelFlagUsage)
	flags.IntVar(&options.maxIterations, maxIterationsFlagName, 0, maxIterationsFlagUsage)
	addBoolChoiceFlag(flags, &options.clarify, clarifyFlagName, clarifyFlagUsage)
	addBoolChoiceFlag(flags, &options.uml, umlFlagName, umlFlagUsage)
	flags.BoolVar(&options.interactive, interactiveFlagName, false, interactiveFlagUsage)
	flags.IntVar(&options.workers, workersFlagName, defaultWorkerCount, workersFlagUsage)
	flags.StringVar(&options.ledgerPath, ledgerFlagName, "", ledgerFlagUsage)
	flags.StringVar(&options.metricsPath, metricsOutFlagName, "", metricsOutFlagUsage)
	command.MarkFlagsMutuallyExclusive(requirementFlagName, datasetFlagName)
	return command
}

func runPipelineCommand(command *cobra.Command, options runCommandOptions) error {
	hasRequirement := strings.TrimSpace(options.requirement) != ""
	hasDataset := strings.TrimSpace(options.datasetPath) != ""
	if hasRequirement == hasDataset {
		return errors.New(inputSelectionErrorMessage)
	}

	root, _, err := loadRootConfiguration(options.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(command, options, &root)
	if err := root.Validate(); err != nil {
		return err
	}

	var requirements []pipeline.Requirement
	if hasDataset {
		requirements, err = dataset.Load(options.datasetPath)
		if err != nil {
			return err
		}
	} else {
		requirements = []pipeline.Requirement{pipeline.NewRequirement(dataset.SingleRequirementID, strings.TrimSpace(options.requirement))}
	}

	if err := os.MkdirAll(options.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", options.outputDir, err)
	}
	logger, closeLogger, err := newRunLogger(root.Common, command.ErrOrStderr(), filepath.Join(options.outputDir, results.LogFileName))
	if err != nil {
		return err
	}
	defer closeLogger()

	metrics := telemetry.New()
	engine, err := buildEngine(root, options.modelName, metrics, command.InOrStdin(), command.ErrOrStderr(), logger)
	if err != nil {
		return err
	}

	var ledger *store.Ledger
	if options.ledgerPath != "" {
		ledger, err = store.Open(options.ledgerPath)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	workers := options.workers
	if root.Pipeline.AnswerMode == clarify.AnswerModeInteractive && workers > interactiveWorkerCap {
		logger.Warn("interactive answers need a single worker", zap.Int("requested_workers", workers))
		workers = interactiveWorkerCap
	}

	ctx := command.Context()
	var runResults []pipeline.PipelineResult
	if hasDataset {
		runResults = engine.RunBatch(ctx, requirements, workers)
	} else {
		runResults = []pipeline.PipelineResult{engine.Run(ctx, requirements[0])}
	}

	writer := results.NewWriter(fsops.NewOS(), options.outputDir)
	for _, result := range runResults {
		if _, err := writer.WriteDesigns(result); err != nil {
			return err
		}
	}
	if err := reportResults(command.OutOrStdout(), writer, runResults, hasDataset); err != nil {
		return err
	}

	if ledger != nil {
		// Finished runs are recorded even after an interrupt.
		recordCtx := context.WithoutCancel(ctx)
		for _, result := range runResults {
			if err := ledger.Record(recordCtx, result); err != nil {
				return err
			}
		}
	}

	if options.metricsPath != "" {
		if err := metrics.WriteTextfile(options.metricsPath); err != nil {
			return fmt.Errorf("write metrics %s: %w", options.metricsPath, err)
		}
	}
	return nil
}

// applyFlagOverrides lets explicitly set flags win over the configuration.
func applyFlagOverrides(command *cobra.Command, options runCommandOptions, root *config.Root) {
	flags := command.Flags()
	if flags.Changed(maxIterationsFlagName) {
		root.Pipeline.MaxIterations = options.maxIterations
	}
	if flags.Changed(clarifyFlagName) {
		root.Pipeline.UseClarification = options.clarify
	}
	if flags.Changed(umlFlagName) {
		root.Pipeline.GenerateUML = options.uml
	}
	if options.interactive {
		root.Pipeline.AnswerMode = clarify.AnswerModeInteractive
	}
}

func reportResults(out io.Writer, writer results.Writer, runResults []pipeline.PipelineResult, datasetMode bool) error {
	if !datasetMode {
		result := runResults[0]
		path, err := writer.WriteResult(result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, singleResultMessageFormat, result.RequirementID, result.FinalStatus, result.Iterations, path)
		return err
	}

	path, err := writer.WriteDataset(runResults)
	if err != nil {
		return err
	}
	for _, result := range runResults {
		if _, err := fmt.Fprintf(out, datasetLineFormat, result.RequirementID, result.FinalStatus, result.Iterations); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, datasetResultMessageFormat, len(runResults), path)
	return err
}

// buildEngine wires the configured backend, stages and oracles. The same
// stage values are shared by every run of a batch.
func buildEngine(root config.Root, modelName string, metrics *telemetry.Metrics, stdin io.Reader, stderr io.Writer, logger *zap.Logger) (orchestrator.Engine, error) {
	model, err := selectModel(root, modelName)
	if err != nil {
		return orchestrator.Engine{}, err
	}
	endpoint := strings.TrimSpace(model.Endpoint)
	if endpoint == "" && model.Provider != llm.ProviderOllama {
		endpoint = root.Common.API.Endpoint
	}
	client, err := llm.NewClient(llm.ClientOptions{
		Provider:            model.Provider,
		BaseURL:             endpoint,
		APIKeyEnv:           root.Common.API.APIKeyEnv,
		ModelID:             model.ModelID,
		DefaultTemperature:  model.DefaultTemperature,
		MaxTokens:           model.MaxCompletionTokens,
		SupportsTemperature: model.SupportsTemperature,
	})
	if err != nil {
		return orchestrator.Engine{}, err
	}
	client = llm.WithTimeout(client, root.BackendTimeout())
	client = llm.WithRateLimit(client, llm.NewLimiter(root.Common.API.RequestsPerSecond))
	client = llm.WithObserver(client, metrics.ObserveBackendCall)

	promptSet, err := prompts.NewSet(root.Prompts)
	if err != nil {
		return orchestrator.Engine{}, err
	}
	profile, err := root.LanguageProfile()
	if err != nil {
		return orchestrator.Engine{}, err
	}

	var answerer orchestrator.Answerer
	switch root.Pipeline.AnswerMode {
	case clarify.AnswerModeInteractive:
		answerer = clarify.NewInteractiveAnswerer(stdin, stderr)
	case clarify.AnswerModeNone:
		answerer = clarify.NoAnswerer{}
	default:
		answerer = clarify.SimulatedAnswerer{Client: client, Prompts: promptSet, Model: model.ModelID, Logger: logger.Named("answerer")}
	}

	oracles := verify.NewDefaultRegistry().Enabled(verify.Settings{
		RunTests:    root.Verify.RunTests,
		RunLinter:   root.Verify.RunLinter,
		RunFormal:   root.Verify.RunFormal,
		Timeout:     root.OracleTimeout(),
		EmptyPolicy: root.Verify.EmptyTestsPolicy,
		Profile:     profile,
	})
	logger.Info("pipeline configured",
		zap.String("model", model.Name),
		zap.String("provider", model.Provider),
		zap.String("language", profile.Name),
		zap.Int("oracles", len(oracles)),
		zap.Int("max_iterations", root.Pipeline.MaxIterations),
	)

	return orchestrator.Engine{
		Clarifier: clarify.Clarifier{
			Client: client, Prompts: promptSet, Model: model.ModelID,
			Temperature: model.DefaultTemperature, Logger: logger.Named("clarifier"),
		},
		Answerer: answerer,
		Elaborator: design.Elaborator{
			Client: client, Prompts: promptSet, Kinds: root.Pipeline.DesignKinds,
			Model: model.ModelID, Logger: logger.Named("design"),
		},
		Generator: generate.Generator{
			Client: client, Prompts: promptSet, Profile: profile, Model: model.ModelID,
			Temperature: model.DefaultTemperature, Logger: logger.Named("generator"),
		},
		Verifier: verify.Verifier{
			Oracles: oracles, Parallel: root.Verify.Parallel,
			Logger: logger.Named("verifier"), Observe: metrics.ObserveOutcome,
		},
		Options: orchestrator.Options{
			UseClarification: root.Pipeline.UseClarification,
			MaxQuestions:     root.Pipeline.ClarifierMaxQuestions,
			GenerateDesign:   root.Pipeline.GenerateUML,
			MaxIterations:    root.Pipeline.MaxIterations,
			SummaryLimit:     root.Pipeline.SummaryLimit,
		},
		Logger:   logger.Named("orchestrator"),
		Observer: metrics,
	}, nil
}

func selectModel(root config.Root, name string) (config.Model, error) {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		model, ok := root.FindModel(trimmed)
		if !ok {
			return config.Model{}, fmt.Errorf(unknownModelErrorFormat, trimmed)
		}
		return model, nil
	}
	model, _ := root.DefaultModel()
	return model, nil
}
