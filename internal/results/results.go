package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/temirov/clarify-verify/internal/fsops"
	"github.com/temirov/clarify-verify/internal/pipeline"
)

const (
	// DatasetFileName holds every result of a dataset run, in input order.
	DatasetFileName = "results.json"
	// LogFileName is the execution log written next to the results.
	LogFileName = "pipeline.log"

	resultFilePrefix     = "result_"
	resultFileSuffix     = ".json"
	designDirectoryName  = "designs"
	designFileSuffix     = ".puml"
	descriptionSuffix    = "_desc.txt"
	descriptionFormat    = "Kind: %s\n\n%s\n"
	encodeErrorFormat    = "encode %s: %w"
	decodeErrorFormat    = "decode results %s: %w"
	readErrorFormat      = "read results %s: %w"
	inventoryErrorFormat = "list results in %s: %w"
)

// Writer persists results under Dir.
type Writer struct {
	Ops fsops.Ops
	Dir string
}

func NewWriter(fs fsops.FS, dir string) Writer {
	return Writer{Ops: fsops.NewOps(fs), Dir: dir}
}

// ResultPath is where WriteResult stores a single requirement's result.
func (w Writer) ResultPath(requirementID string) string {
	return filepath.Join(w.Dir, resultFilePrefix+fsops.SafeName(requirementID)+resultFileSuffix)
}

// WriteResult stores result_<id>.json and returns its path.
func (w Writer) WriteResult(result pipeline.PipelineResult) (string, error) {
	path := w.ResultPath(result.RequirementID)
	return path, w.writeJSON(path, result)
}

// WriteDataset stores results.json as an ordered array and returns its path.
func (w Writer) WriteDataset(all []pipeline.PipelineResult) (string, error) {
	if all == nil {
		all = []pipeline.PipelineResult{}
	}
	path := filepath.Join(w.Dir, DatasetFileName)
	return path, w.writeJSON(path, all)
}

// WriteDesigns stores each design artifact as <id>_<kind>.puml with a
// description sidecar and returns the .puml paths.
func (w Writer) WriteDesigns(result pipeline.PipelineResult) ([]string, error) {
	var paths []string
	for _, artifact := range result.DesignArtifacts {
		base := filepath.Join(w.Dir, designDirectoryName, fsops.SafeName(result.RequirementID)+"_"+fsops.SafeName(artifact.Kind))
		path := base + designFileSuffix
		if err := w.Ops.WriteFileAtomic(path, []byte(artifact.Specification+"\n")); err != nil {
			return paths, err
		}
		description := fmt.Sprintf(descriptionFormat, artifact.Kind, artifact.Description)
		if err := w.Ops.WriteFileAtomic(base+descriptionSuffix, []byte(description)); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (w Writer) writeJSON(path string, value any) error {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf(encodeErrorFormat, path, err)
	}
	return w.Ops.WriteFileAtomic(path, buffer.Bytes())
}

// Read loads results from a results.json array, a single result_<id>.json
// object, or a directory of result_*.json files.
func Read(fs fsops.FS, path string) ([]pipeline.PipelineResult, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf(readErrorFormat, path, err)
	}
	if !info.IsDir() {
		return readFile(fs, path)
	}

	files, err := fsops.NewOps(fs).Inventory(path, resultFilePrefix, resultFileSuffix)
	if err != nil {
		return nil, fmt.Errorf(inventoryErrorFormat, path, err)
	}
	var all []pipeline.PipelineResult
	for _, file := range files {
		loaded, err := readFile(fs, file)
		if err != nil {
			return nil, err
		}
		all = append(all, loaded...)
	}
	return all, nil
}

func readFile(fs fsops.FS, path string) ([]pipeline.PipelineResult, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(readErrorFormat, path, err)
	}
	trimmed := bytes.TrimSpace(content)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		var single pipeline.PipelineResult
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf(decodeErrorFormat, path, err)
		}
		return []pipeline.PipelineResult{single}, nil
	}
	var all []pipeline.PipelineResult
	if err := json.Unmarshal(trimmed, &all); err != nil {
		return nil, fmt.Errorf(decodeErrorFormat, path, err)
	}
	return all, nil
}
