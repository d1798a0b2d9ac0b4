package clarifyverify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clarify-verify/internal/clarify"
	"github.com/temirov/clarify-verify/internal/config"
)

func TestApplyFlagOverrides(t *testing.T) {
	root := config.Root{}
	root.Pipeline.MaxIterations = 3
	root.Pipeline.UseClarification = true
	root.Pipeline.GenerateUML = true
	root.Pipeline.AnswerMode = clarify.AnswerModeSimulate

	unchanged := newRunCommand()
	applyFlagOverrides(unchanged, runCommandOptions{maxIterations: 7, clarify: false}, &root)
	require.Equal(t, 3, root.Pipeline.MaxIterations)
	require.True(t, root.Pipeline.UseClarification)

	changed := newRunCommand()
	require.NoError(t, changed.Flags().Set(maxIterationsFlagName, "5"))
	require.NoError(t, changed.Flags().Set(umlFlagName, "off"))
	applyFlagOverrides(changed, runCommandOptions{maxIterations: 5, uml: false, interactive: true}, &root)
	require.Equal(t, 5, root.Pipeline.MaxIterations)
	require.False(t, root.Pipeline.GenerateUML)
	require.True(t, root.Pipeline.UseClarification)
	require.Equal(t, clarify.AnswerModeInteractive, root.Pipeline.AnswerMode)
}

func TestSelectModel(t *testing.T) {
	root := config.Root{Models: []config.Model{{Name: "a"}, {Name: "b", Default: true}}}

	model, err := selectModel(root, "")
	require.NoError(t, err)
	require.Equal(t, "b", model.Name)

	model, err = selectModel(root, " a ")
	require.NoError(t, err)
	require.Equal(t, "a", model.Name)

	_, err = selectModel(root, "c")
	require.ErrorContains(t, err, `model "c" not found`)
}

func TestParseBoolChoice(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
		ok       bool
	}{
		{name: "EmptyDefaultsTrue", input: "", expected: true, ok: true},
		{name: "TrueWord", input: "true", expected: true, ok: true},
		{name: "FalseWord", input: "false", expected: false, ok: true},
		{name: "Yes", input: "yes", expected: true, ok: true},
		{name: "No", input: "no", expected: false, ok: true},
		{name: "Upper", input: "ON", expected: true, ok: true},
		{name: "Invalid", input: "maybe", expected: false, ok: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			value, ok := parseBoolChoice(testCase.input)
			require.Equal(t, testCase.ok, ok)
			if ok {
				require.Equal(t, testCase.expected, value)
			}
		})
	}
}
