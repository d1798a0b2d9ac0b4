package generate

import (
	"regexp"
	"strings"

	"github.com/temirov/clarify-verify/internal/markdown"
)

// Extraction is the code, tests and prose found in one completion.
type Extraction struct {
	Code        string
	Tests       string
	Explanation string
}

// testHeaderPattern matches a first line that opens a test file: a tests
// comment header, a test framework import, an import of the solution module
// or a test function.
var testHeaderPattern = regexp.MustCompile(`^(#\s*(unit\s+)?tests?\b|import\s+(pytest|unittest)\b|from\s+(pytest|unittest|solution)\s+import\b|def\s+test_)`)

// Extract splits a completion into code and tests. A block tagged "test" in
// its info string, or opening with a test header line, holds the tests;
// otherwise the first block is code and the second is tests. Text without
// fences is all code.
func Extract(raw string) Extraction {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Extraction{}
	}
	blocks := markdown.FencedBlocks(text)
	if len(blocks) == 0 {
		return Extraction{Code: text}
	}

	codeIndex, testIndex := -1, -1
	for idx, block := range blocks {
		if strings.TrimSpace(block.Body) == "" {
			continue
		}
		if isTestBlock(block) {
			if testIndex < 0 {
				testIndex = idx
			}
			continue
		}
		if codeIndex < 0 {
			codeIndex = idx
		}
	}
	if testIndex < 0 && codeIndex >= 0 {
		for idx := codeIndex + 1; idx < len(blocks); idx++ {
			if strings.TrimSpace(blocks[idx].Body) != "" {
				testIndex = idx
				break
			}
		}
	}

	extraction := Extraction{Explanation: markdown.Outside(text)}
	if codeIndex >= 0 {
		extraction.Code = strings.TrimSpace(blocks[codeIndex].Body)
	}
	if testIndex >= 0 {
		extraction.Tests = strings.TrimSpace(blocks[testIndex].Body)
	}
	return extraction
}

func isTestBlock(block markdown.Block) bool {
	if strings.Contains(strings.ToLower(block.Info), "test") {
		return true
	}
	for _, line := range strings.Split(block.Body, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return testHeaderPattern.MatchString(strings.ToLower(trimmed))
		}
	}
	return false
}
