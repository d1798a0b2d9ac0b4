package fsops_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clarify-verify/internal/fsops"
)

func TestWriteFileAtomicAndInventory_InMemory(t *testing.T) {
	mem := fsops.NewMem()
	ops := fsops.NewOps(mem)

	require.NoError(t, ops.WriteFileAtomic("/out/result_b.json", []byte("{}")))
	require.NoError(t, ops.WriteFileAtomic("/out/result_a.json", []byte("{}")))
	require.NoError(t, ops.WriteFileAtomic("/out/nested/result_c.json", []byte("{}")))
	require.NoError(t, ops.WriteFileAtomic("/out/.cache/result_hidden.json", []byte("{}")))
	require.NoError(t, ops.WriteFileAtomic("/out/pipeline.log", []byte("log")))

	require.True(t, ops.FileExists("/out/result_a.json"))
	require.False(t, ops.FileExists("/out/result_a.json.tmp"))

	files, err := ops.Inventory("/out", "result_", ".json")
	require.NoError(t, err)
	require.Equal(t, []string{"/out/nested/result_c.json", "/out/result_a.json", "/out/result_b.json"}, files)

	content, err := mem.ReadFile("/out/pipeline.log")
	require.NoError(t, err)
	require.Equal(t, "log", string(content))
}

func TestInventoryMissingRoot(t *testing.T) {
	ops := fsops.NewOps(fsops.NewMem())
	_, err := ops.Inventory("/absent", "", "")
	require.Error(t, err)
}

func TestSafeName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "req_001", expected: "req_001"},
		{input: " a b ", expected: "a_b"},
		{input: "../etc/passwd", expected: "__etc_passwd"},
		{input: "dir\\file", expected: "dir_file"},
		{input: "  ", expected: "unnamed"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			require.Equal(t, testCase.expected, fsops.SafeName(testCase.input))
		})
	}
}
