package verify

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

const workspacePrefix = "clarify-verify-"

// Workspace is a scratch directory holding one artifact's files.
type Workspace struct {
	fs  afero.Fs
	Dir string
}

// NewWorkspace creates a fresh directory under the system temp dir.
func NewWorkspace(fs afero.Fs) (Workspace, error) {
	dir, err := afero.TempDir(fs, "", workspacePrefix)
	if err != nil {
		return Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	return Workspace{fs: fs, Dir: dir}, nil
}

// Write stores content under name inside the workspace.
func (w Workspace) Write(name string, content string) error {
	path := filepath.Join(w.Dir, name)
	if err := afero.WriteFile(w.fs, path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Remove deletes the workspace and everything in it.
func (w Workspace) Remove() error {
	return w.fs.RemoveAll(w.Dir)
}
