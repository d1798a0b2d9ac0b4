package clarifyverify

const (
	applicationName  = "clarify-verify"
	rootCommandShort = "Turn requirements into verified code with a clarify, design, generate, verify and repair loop"

	runCommandUse        = "run"
	runCommandShort      = "Run the pipeline on one requirement or a dataset"
	analyzeCommandUse    = "analyze [RESULTS]"
	analyzeCommandShort  = "Summarise pass rates and iterations from saved results"
	configCommandUse     = "config"
	configCommandShort   = "Print the resolved configuration"
	analyzeArgsMax       = 1
	defaultOutputDir     = "results"
	defaultWorkerCount   = 1
	interactiveWorkerCap = 1

	configFlagName         = "config"
	configFlagUsage        = "Path to config.yaml (default: ./config.yaml, then ~/.clarify-verify/config.yaml, then built-in)"
	requirementFlagName    = "requirement"
	requirementFlagUsage   = "Requirement text to process"
	datasetFlagName        = "dataset"
	datasetFlagUsage       = "JSON or YAML file with a list of {id, requirement} entries"
	outdirFlagName         = "outdir"
	outdirFlagUsage        = "Directory for results, designs and pipeline.log"
	modelFlagName          = "model"
	modelFlagUsage         = "Model name from models[] (default: the model marked default)"
	maxIterationsFlagName  = "max-iterations"
	maxIterationsFlagUsage = "Verification rounds per requirement (overrides pipeline.max_iterations)"
	clarifyFlagName        = "clarify"
	clarifyFlagUsage       = "Ask clarification questions before generating (overrides pipeline.use_clarification)"
	umlFlagName            = "uml"
	umlFlagUsage           = "Generate PlantUML designs before code (overrides pipeline.generate_uml)"
	interactiveFlagName    = "interactive"
	interactiveFlagUsage   = "Answer clarification questions on stdin instead of simulating answers"
	workersFlagName        = "workers"
	workersFlagUsage       = "Requirements processed concurrently in dataset mode"
	ledgerFlagName         = "ledger"
	ledgerFlagUsage        = "SQLite file recording every run and oracle outcome"
	metricsOutFlagName     = "metrics-out"
	metricsOutFlagUsage    = "Write Prometheus metrics in text format to this file"
	outputFlagName         = "output"
	outputFlagUsage        = "Also write the analysis as JSON to this file"

	configurationLoaderInitializationErrorFormat = "initialize configuration loader: %w"
	configurationSourceResolutionErrorFormat     = "resolve configuration source: %w"
	rootConfigurationLoadErrorFormat             = "load configuration %s: %w"
	unknownModelErrorFormat                      = "model %q not found in models[]"
	inputSelectionErrorMessage                   = "provide exactly one of --requirement or --dataset"
	analyzeInputErrorMessage                     = "provide a results file or directory, or --ledger"

	singleResultMessageFormat  = "%s: %s after %d iteration(s)\nResult saved to: %s\n"
	datasetResultMessageFormat = "%d results saved to: %s\n"
	datasetLineFormat          = "  %s: %s after %d iteration(s)\n"
	analysisSavedMessageFormat = "\nAnalysis saved to: %s\n"
)
