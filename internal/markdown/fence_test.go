package markdown

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFencedBlocks(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected []Block
	}{
		{name: "none", text: "plain text", expected: nil},
		{
			name: "two blocks with info",
			text: "intro\n```python\nx = 1\n```\nmid\n```python test\ndef test_x():\n    pass\n```\nend",
			expected: []Block{
				{Info: "python", Body: "x = 1"},
				{Info: "python test", Body: "def test_x():\n    pass"},
			},
		},
		{
			name:     "unterminated",
			text:     "```\na\nb",
			expected: []Block{{Body: "a\nb"}},
		},
		{
			name:     "indented fences",
			text:     "  ```go\n  x := 1\n  ```",
			expected: []Block{{Info: "go", Body: "  x := 1"}},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if diff := cmp.Diff(testCase.expected, FencedBlocks(testCase.text)); diff != "" {
				t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutsideAndStripFences(t *testing.T) {
	text := "```python\ncode\n```\nexplanation here"
	if got := Outside(text); got != "explanation here" {
		t.Fatalf("Outside: got %q", got)
	}
	if got := StripFences(text); got != "code\nexplanation here" {
		t.Fatalf("StripFences: got %q", got)
	}
}
