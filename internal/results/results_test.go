package results_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/temirov/clarify-verify/internal/fsops"
	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/results"
)

func sampleResult(id string, status pipeline.Status) pipeline.PipelineResult {
	report := pipeline.VerificationReport{Iteration: 1, Outcomes: []pipeline.VerificationOutcome{
		{Oracle: pipeline.OracleTests, Passed: status == pipeline.StatusSuccess, Diagnostic: "1 passed <ok>"},
	}}
	return pipeline.PipelineResult{
		RunID:               "run-" + id,
		RequirementID:       id,
		OriginalRequirement: "sort numbers",
		RefinedRequirement:  "sort numbers ascending",
		FinalCode:           pipeline.CodeArtifact{Language: pipeline.LanguagePython, Code: "def solve(): pass"},
		VerificationReports: []pipeline.VerificationReport{report},
		Iterations:          1,
		FinalStatus:         status,
		Metrics:             pipeline.ComputeMetrics([]pipeline.VerificationReport{report}, 1),
		DesignArtifacts: []pipeline.DesignArtifact{{
			Kind:          pipeline.DesignKindSequence,
			Specification: "@startuml\nA -> B\n@enduml",
			Description:   "A calls B",
		}},
	}
}

func TestWriteResultRoundTrip(t *testing.T) {
	mem := fsops.NewMem()
	writer := results.NewWriter(mem, "/out")
	original := sampleResult("req_001", pipeline.StatusSuccess)

	path, err := writer.WriteResult(original)
	require.NoError(t, err)
	require.Equal(t, "/out/result_req_001.json", path)

	content, err := mem.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), `"final_status": "success"`)
	require.Contains(t, string(content), "<ok>")

	loaded, err := results.Read(mem, path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	if diff := cmp.Diff(original, loaded[0]); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDatasetKeepsOrder(t *testing.T) {
	mem := fsops.NewMem()
	writer := results.NewWriter(mem, "/out")
	all := []pipeline.PipelineResult{
		sampleResult("b", pipeline.StatusFailed),
		sampleResult("a", pipeline.StatusSuccess),
	}
	path, err := writer.WriteDataset(all)
	require.NoError(t, err)
	require.Equal(t, "/out/results.json", path)

	loaded, err := results.Read(mem, path)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, []string{loaded[0].RequirementID, loaded[1].RequirementID})

	emptyPath, err := results.NewWriter(mem, "/empty").WriteDataset(nil)
	require.NoError(t, err)
	content, err := mem.ReadFile(emptyPath)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(content))
}

func TestReadDirectoryOfResults(t *testing.T) {
	mem := fsops.NewMem()
	writer := results.NewWriter(mem, "/out")
	for _, id := range []string{"2", "1"} {
		_, err := writer.WriteResult(sampleResult(id, pipeline.StatusSuccess))
		require.NoError(t, err)
	}
	loaded, err := results.Read(mem, "/out")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, "1", loaded[0].RequirementID)

	_, err = results.Read(mem, "/missing")
	require.ErrorContains(t, err, "read results")
}

func TestWriteDesigns(t *testing.T) {
	mem := fsops.NewMem()
	writer := results.NewWriter(mem, "/out")

	paths, err := writer.WriteDesigns(sampleResult("a/b", pipeline.StatusSuccess))
	require.NoError(t, err)
	require.Equal(t, []string{"/out/designs/a_b_sequence.puml"}, paths)

	diagram, err := mem.ReadFile(paths[0])
	require.NoError(t, err)
	require.Equal(t, "@startuml\nA -> B\n@enduml\n", string(diagram))

	description, err := mem.ReadFile("/out/designs/a_b_sequence_desc.txt")
	require.NoError(t, err)
	require.Equal(t, "Kind: sequence\n\nA calls B\n", string(description))
}

func TestReadRejectsMalformed(t *testing.T) {
	mem := fsops.NewMem()
	require.NoError(t, mem.WriteFile("/bad.json", []byte("[{"), 0o644))
	_, err := results.Read(mem, "/bad.json")
	require.ErrorContains(t, err, "decode results")
}
