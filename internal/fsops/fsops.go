package fsops

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
	tempSuffix      = ".tmp"
)

// FS is the filesystem surface the result writers need.
type FS interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	WalkDir(root string, fn fs.WalkDirFunc) error
}

// ---------- OS-backed implementation ----------

type OS struct{}

func NewOS() OS { return OS{} }

func (OS) ReadFile(name string) ([]byte, error) { return os.ReadFile(filepath.Clean(name)) }
func (OS) WriteFile(name string, b []byte, p os.FileMode) error {
	return os.WriteFile(filepath.Clean(name), b, p)
}
func (OS) Stat(name string) (fs.FileInfo, error)     { return os.Stat(filepath.Clean(name)) }
func (OS) Rename(a, b string) error                  { return os.Rename(a, b) }
func (OS) MkdirAll(path string, p os.FileMode) error { return os.MkdirAll(filepath.Clean(path), p) }
func (OS) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(filepath.Clean(root), fn)
}

// ---------- afero-backed implementation (tests) ----------

type Mem struct{ Fs afero.Fs }

func NewMem() Mem { return Mem{Fs: afero.NewMemMapFs()} }

func (m Mem) ReadFile(name string) ([]byte, error) { return afero.ReadFile(m.Fs, filepath.Clean(name)) }
func (m Mem) WriteFile(name string, b []byte, p os.FileMode) error {
	return afero.WriteFile(m.Fs, filepath.Clean(name), b, p)
}
func (m Mem) Stat(name string) (fs.FileInfo, error) { return m.Fs.Stat(filepath.Clean(name)) }
func (m Mem) Rename(a, b string) error              { return m.Fs.Rename(a, b) }
func (m Mem) MkdirAll(path string, p os.FileMode) error {
	return m.Fs.MkdirAll(filepath.Clean(path), p)
}
func (m Mem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return afero.Walk(m.Fs, filepath.Clean(root), func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(p, nil, err)
		}
		return fn(p, fs.FileInfoToDirEntry(info), nil)
	})
}

// ---------- helpers ----------

type Ops struct{ FS FS }

func NewOps(fs FS) Ops { return Ops{FS: fs} }

// WriteFileAtomic writes to a sibling temp file and renames it into place so
// readers never observe a partial result.
func (o Ops) WriteFileAtomic(path string, data []byte) error {
	if err := o.FS.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	temp := path + tempSuffix
	if err := o.FS.WriteFile(temp, data, filePermissions); err != nil {
		return fmt.Errorf("write %s: %w", temp, err)
	}
	if err := o.FS.Rename(temp, path); err != nil {
		return fmt.Errorf("rename %s: %w", temp, err)
	}
	return nil
}

func (o Ops) FileExists(p string) bool { _, err := o.FS.Stat(p); return err == nil }

// Inventory lists regular files under root whose base name has the given
// prefix and suffix, sorted. Dot-directories are skipped.
func (o Ops) Inventory(root, prefix, suffix string) ([]string, error) {
	var out []string
	err := o.FS.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != filepath.Clean(root) && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			out = append(out, p)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

// SafeName turns an identifier into a single path element. Distinct
// identifiers can share a SafeName, so callers that write one file per
// identifier must check for collisions.
func SafeName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", "..", "_")
	cleaned := replacer.Replace(strings.TrimSpace(name))
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}
