// Package markdown extracts fenced code blocks from completion text.
package markdown

import "strings"

const fenceMarker = "```"

// Block is one fenced block. Info is the text after the opening fence.
type Block struct {
	Info string
	Body string
}

// FencedBlocks returns the fenced blocks of text in order. An unterminated
// final block runs to the end of the text.
func FencedBlocks(text string) []Block {
	var (
		blocks  []Block
		current *Block
		body    []string
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if current == nil {
			if strings.HasPrefix(trimmed, fenceMarker) {
				current = &Block{Info: strings.TrimSpace(strings.TrimPrefix(trimmed, fenceMarker))}
				body = body[:0]
			}
			continue
		}
		if trimmed == fenceMarker {
			current.Body = strings.Join(body, "\n")
			blocks = append(blocks, *current)
			current = nil
			continue
		}
		body = append(body, line)
	}
	if current != nil {
		current.Body = strings.Join(body, "\n")
		blocks = append(blocks, *current)
	}
	return blocks
}

// StripFences removes fence lines and returns the remaining text trimmed.
func StripFences(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), fenceMarker) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// Outside returns the text that is not inside any fenced block.
func Outside(text string) string {
	var (
		kept    []string
		inBlock bool
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), fenceMarker) {
			inBlock = !inBlock
			continue
		}
		if !inBlock {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
