package clarifyverify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	clarifyverify "github.com/temirov/clarify-verify/cmd/clarify-verify"
	"github.com/temirov/clarify-verify/internal/analysis"
	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/store"
)

const (
	chatCompletionPath     = "/chat/completions"
	testAPIKeyVariable     = "CLARIFY_VERIFY_TEST_API_KEY"
	generatedCodeReply     = "```python\ndef add(a, b):\n    return a + b\n```\n\n```python test\nfrom solution import add\n\n\ndef test_add():\n    assert add(1, 2) == 3\n```\n"
	mockConfigurationYAML  = "common:\n  logging:\n    level: debug\n    format: json\nmodels:\n  - name: mock\n    provider: mock\n    model_id: mock\n    default: true\nverify:\n  run_tests: false\n  run_linter: false\n  run_formal: true\n"
	remoteConfigurationFmt = "common:\n  api:\n    endpoint: %s\n    api_key_env: " + testAPIKeyVariable + "\n  logging:\n    level: info\nmodels:\n  - name: remote\n    provider: openai\n    model_id: gpt-test\n    default: true\n    max_completion_tokens: 256\npipeline:\n  use_clarification: false\n  generate_uml: false\nverify:\n  run_tests: false\n  run_linter: false\n  run_formal: true\n"
)

type commandOutput struct {
	stdout string
	stderr string
}

func executeCommand(t *testing.T, stdin string, args ...string) (commandOutput, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), stdin, args...)
}

func executeCommandContext(t *testing.T, ctx context.Context, stdin string, args ...string) (commandOutput, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	command := clarifyverify.NewRootCommand()
	command.SetArgs(args)
	command.SetOut(&stdout)
	command.SetErr(&stderr)
	command.SetIn(strings.NewReader(stdin))
	err := command.ExecuteContext(ctx)
	return commandOutput{stdout: stdout.String(), stderr: stderr.String()}, err
}

func writeFile(t *testing.T, path string, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunSingleRequirementWithMockBackend(t *testing.T) {
	directory := t.TempDir()
	configPath := writeFile(t, filepath.Join(directory, "config.yaml"), mockConfigurationYAML)
	outputDir := filepath.Join(directory, "out")
	ledgerPath := filepath.Join(directory, "ledger.db")
	metricsPath := filepath.Join(directory, "metrics.prom")

	output, err := executeCommand(t, "",
		"run", "--config", configPath, "--requirement", "sort a list of numbers",
		"--outdir", outputDir, "--ledger", ledgerPath, "--metrics-out", metricsPath)
	require.NoError(t, err, output.stderr)
	require.Contains(t, output.stdout, "req_001: success after 1 iteration(s)")

	content, err := os.ReadFile(filepath.Join(outputDir, "result_req_001.json"))
	require.NoError(t, err)
	var result pipeline.PipelineResult
	require.NoError(t, json.Unmarshal(content, &result))
	require.Equal(t, pipeline.StatusSuccess, result.FinalStatus)
	require.Len(t, result.ClarificationQuestions, 1)
	require.Len(t, result.ClarificationAnswers, 1)
	require.Len(t, result.VerificationReports, 1)
	require.Contains(t, result.FinalCode.Code, "def solve")

	_, err = os.Stat(filepath.Join(outputDir, "designs", "req_001_sequence.puml"))
	require.NoError(t, err)
	logContent, err := os.ReadFile(filepath.Join(outputDir, "pipeline.log"))
	require.NoError(t, err)
	require.Contains(t, string(logContent), "pipeline configured")

	metricsContent, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(metricsContent), `clarify_verify_runs_total{status="success"} 1`)

	analysisPath := filepath.Join(directory, "analysis.json")
	analyzeOutput, err := executeCommand(t, "", "analyze", outputDir, "--output", analysisPath, "--ledger", ledgerPath)
	require.NoError(t, err)
	require.Contains(t, analyzeOutput.stdout, "Pass rate (Pass@1): 100.00%")
	require.Contains(t, analyzeOutput.stdout, "1 runs")
	require.Contains(t, analyzeOutput.stdout, "oracle formal: 1/1 passed")

	var saved analysis.Analysis
	analysisContent, err := os.ReadFile(analysisPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(analysisContent, &saved))
	require.Equal(t, []string{"req_001"}, saved.SuccessCases)
}

func TestRunInterruptedStillPersistsResultsAndLedger(t *testing.T) {
	directory := t.TempDir()
	configPath := writeFile(t, filepath.Join(directory, "config.yaml"), mockConfigurationYAML)
	outputDir := filepath.Join(directory, "out")
	ledgerPath := filepath.Join(directory, "ledger.db")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	output, err := executeCommandContext(t, ctx, "",
		"run", "--config", configPath, "--requirement", "sort a list of numbers",
		"--outdir", outputDir, "--ledger", ledgerPath)
	require.NoError(t, err, output.stderr)
	require.Contains(t, output.stdout, "req_001: unknown")

	content, err := os.ReadFile(filepath.Join(outputDir, "result_req_001.json"))
	require.NoError(t, err)
	var result pipeline.PipelineResult
	require.NoError(t, json.Unmarshal(content, &result))
	require.Equal(t, pipeline.StatusUnknown, result.FinalStatus)

	ledger, err := store.Open(ledgerPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })
	runs, err := ledger.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "req_001", runs[0].RequirementID)
	require.Equal(t, pipeline.StatusUnknown, runs[0].FinalStatus)
}

func TestRunDatasetAgainstOpenAICompatibleServer(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatCompletionPath {
			http.NotFound(w, r)
			return
		}
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": generatedCodeReply},
			}},
		})
	}))
	t.Cleanup(server.Close)
	t.Setenv(testAPIKeyVariable, "test-key")

	directory := t.TempDir()
	configPath := writeFile(t, filepath.Join(directory, "config.yaml"), strings.Replace(remoteConfigurationFmt, "%s", server.URL, 1))
	datasetPath := writeFile(t, filepath.Join(directory, "dataset.json"),
		`[{"id": "add", "requirement": "add two numbers"}, {"id": "plus", "text": "sum a and b"}]`)
	outputDir := filepath.Join(directory, "out")

	output, err := executeCommand(t, "", "run", "--config", configPath, "--dataset", datasetPath, "--outdir", outputDir, "--workers", "2")
	require.NoError(t, err, output.stderr)
	require.Contains(t, output.stdout, "2 results saved to")
	require.Equal(t, int32(2), requests.Load())

	content, err := os.ReadFile(filepath.Join(outputDir, "results.json"))
	require.NoError(t, err)
	var all []pipeline.PipelineResult
	require.NoError(t, json.Unmarshal(content, &all))
	require.Len(t, all, 2)
	require.Equal(t, "add", all[0].RequirementID)
	require.Equal(t, "plus", all[1].RequirementID)
	for _, result := range all {
		require.Equal(t, pipeline.StatusSuccess, result.FinalStatus)
		require.Contains(t, result.FinalCode.Code, "def add")
		require.Empty(t, result.DesignArtifacts)
	}
}

func TestRunFlagOverridesDisableStages(t *testing.T) {
	directory := t.TempDir()
	configPath := writeFile(t, filepath.Join(directory, "config.yaml"), mockConfigurationYAML)
	outputDir := filepath.Join(directory, "out")

	_, err := executeCommand(t, "", "run", "--config", configPath, "--requirement", "reverse a string",
		"--outdir", outputDir, "--clarify=no", "--uml=false", "--max-iterations", "2")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(outputDir, "result_req_001.json"))
	require.NoError(t, err)
	var result pipeline.PipelineResult
	require.NoError(t, json.Unmarshal(content, &result))
	require.Empty(t, result.ClarificationQuestions)
	require.Empty(t, result.DesignArtifacts)
	require.Equal(t, "reverse a string", result.RefinedRequirement)
}

func TestRunRejectsInvalidInvocations(t *testing.T) {
	directory := t.TempDir()
	configPath := writeFile(t, filepath.Join(directory, "config.yaml"), mockConfigurationYAML)
	outputDir := filepath.Join(directory, "out")

	testCases := []struct {
		name    string
		args    []string
		message string
	}{
		{name: "no input", args: []string{"run", "--config", configPath, "--outdir", outputDir}, message: "exactly one of --requirement or --dataset"},
		{name: "both inputs", args: []string{"run", "--config", configPath, "--requirement", "x", "--dataset", "d.json"}, message: "none of the others can be"},
		{name: "unknown model", args: []string{"run", "--config", configPath, "--requirement", "x", "--outdir", outputDir, "--model", "absent"}, message: `model "absent" not found`},
		{name: "zero budget", args: []string{"run", "--config", configPath, "--requirement", "x", "--outdir", outputDir, "--max-iterations", "0"}, message: "pipeline.max_iterations"},
		{name: "bad bool", args: []string{"run", "--config", configPath, "--requirement", "x", "--clarify=maybe"}, message: "invalid boolean value"},
		{name: "analyze without input", args: []string{"analyze"}, message: "provide a results file"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := executeCommand(t, "", testCase.args...)
			require.ErrorContains(t, err, testCase.message)
		})
	}
}

func TestConfigCommandPrintsResolvedConfiguration(t *testing.T) {
	directory := t.TempDir()
	configPath := writeFile(t, filepath.Join(directory, "config.yaml"), mockConfigurationYAML)
	t.Setenv("CLARIFY_VERIFY_PIPELINE_MAX_ITERATIONS", "9")

	output, err := executeCommand(t, "", "config", "--config", configPath)
	require.NoError(t, err)
	require.Contains(t, output.stdout, "# source: "+configPath)
	require.Contains(t, output.stdout, "max_iterations: 9")
	require.Contains(t, output.stdout, "run_formal: true")
}
