package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/clarify-verify/internal/fsops"
	"github.com/temirov/clarify-verify/internal/pipeline"
)

const (
	// SingleRequirementID names the requirement of a single-requirement run.
	SingleRequirementID = "req_001"

	generatedIDFormat      = "req_%03d"
	readDatasetErrorFormat = "read dataset %s: %w"
	decodeErrorFormat      = "decode dataset: %w"
	emptyEntryErrorFormat  = "dataset entry %d (%s) has no requirement text"
	duplicateIDErrorFormat = "dataset entry %d repeats id %q"
	fileNameErrorFormat    = "dataset entry %d id %q shares file name %q with id %q"
)

var ErrEmptyDataset = errors.New("dataset contains no requirements")

// entry accepts both "requirement" and "text" for the requirement body.
type entry struct {
	ID          string `yaml:"id"`
	Requirement string `yaml:"requirement"`
	Text        string `yaml:"text"`
}

// Load reads a dataset file. JSON arrays and YAML sequences are both
// accepted since JSON parses as YAML.
func Load(path string) ([]pipeline.Requirement, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(readDatasetErrorFormat, path, err)
	}
	return Decode(bytes.NewReader(content))
}

// Decode parses a list of {id, requirement|text} entries. Missing ids become
// req_NNN by position; ids must be unique.
func Decode(reader io.Reader) ([]pipeline.Requirement, error) {
	var entries []entry
	if err := yaml.NewDecoder(reader).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf(decodeErrorFormat, err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyDataset
	}

	requirements := make([]pipeline.Requirement, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	stems := make(map[string]string, len(entries))
	for index, item := range entries {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = fmt.Sprintf(generatedIDFormat, index+1)
		}
		if seen[id] {
			return nil, fmt.Errorf(duplicateIDErrorFormat, index, id)
		}
		seen[id] = true
		stem := fsops.SafeName(id)
		if other, taken := stems[stem]; taken {
			return nil, fmt.Errorf(fileNameErrorFormat, index, id, stem, other)
		}
		stems[stem] = id

		text := strings.TrimSpace(item.Requirement)
		if text == "" {
			text = strings.TrimSpace(item.Text)
		}
		if text == "" {
			return nil, fmt.Errorf(emptyEntryErrorFormat, index, id)
		}
		requirements = append(requirements, pipeline.NewRequirement(id, text))
	}
	return requirements, nil
}
