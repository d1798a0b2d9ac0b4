package dataset_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clarify-verify/internal/dataset"
	"github.com/temirov/clarify-verify/internal/pipeline"
)

func TestDecodeFormats(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected []pipeline.Requirement
	}{
		{
			name:    "json with ids",
			content: `[{"id": "sort", "requirement": "sort a list"}, {"id": "sum", "text": "sum values"}]`,
			expected: []pipeline.Requirement{
				pipeline.NewRequirement("sort", "sort a list"),
				pipeline.NewRequirement("sum", "sum values"),
			},
		},
		{
			name:    "yaml without ids",
			content: "- requirement: reverse a string\n- text: count words\n",
			expected: []pipeline.Requirement{
				pipeline.NewRequirement("req_001", "reverse a string"),
				pipeline.NewRequirement("req_002", "count words"),
			},
		},
		{
			name:     "requirement preferred over text",
			content:  `[{"requirement": "a", "text": "b"}]`,
			expected: []pipeline.Requirement{pipeline.NewRequirement("req_001", "a")},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			requirements, err := dataset.Decode(strings.NewReader(testCase.content))
			require.NoError(t, err)
			require.Equal(t, testCase.expected, requirements)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		message string
	}{
		{name: "empty file", content: "", message: "no requirements"},
		{name: "empty list", content: "[]", message: "no requirements"},
		{name: "blank requirement", content: `[{"id": "x"}]`, message: "has no requirement text"},
		{name: "duplicate ids", content: `[{"id": "x", "text": "a"}, {"id": "x", "text": "b"}]`, message: `repeats id "x"`},
		{name: "ids sharing a file name", content: `[{"id": "a b", "text": "a"}, {"id": "a_b", "text": "b"}]`, message: `shares file name "a_b" with id "a b"`},
		{name: "not a list", content: `{"id": "x"}`, message: "decode dataset"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := dataset.Decode(strings.NewReader(testCase.content))
			require.ErrorContains(t, err, testCase.message)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "one", "requirement": "x"}]`), 0o644))

	requirements, err := dataset.Load(path)
	require.NoError(t, err)
	require.Len(t, requirements, 1)

	_, err = dataset.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorContains(t, err, "read dataset")
}
