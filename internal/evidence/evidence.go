// Package evidence manages the screenshot files captured by test runs.
// Files live in one directory; results refer to them by their path relative
// to it.
package evidence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/besttest/besttest/pkg/types"
)

// DirName is the evidence directory inside the data directory.
const DirName = "evidence"

// ErrInvalidPath rejects names that are empty or leave the directory.
var ErrInvalidPath = errors.New("invalid evidence path")

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// File describes one evidence file.
type File struct {
	Name      string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is a screenshot referenced by a result detail. File is nil
// when the file no longer exists.
type Attachment struct {
	CaseKey string `json:"caseKey,omitempty"`
	CaseID  string `json:"caseId"`
	Name    string `json:"name"`
	File    *File  `json:"file,omitempty"`
}

// Dir is an evidence directory.
type Dir struct {
	root string
}

// Open returns the evidence directory at root, creating it if needed.
func Open(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("evidence dir must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// List returns every image below the directory, sorted by path.
func (d *Dir) List() ([]File, error) {
	files := []File{}
	err := filepath.WalkDir(d.root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		files = append(files, fileFor(filepath.ToSlash(rel), info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Lookup stats one file by its relative path.
func (d *Dir) Lookup(name string) (File, bool, error) {
	path, err := d.resolve(name)
	if err != nil {
		return File{}, false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return File{}, false, nil
	}
	if err != nil {
		return File{}, false, fmt.Errorf("stat evidence %s: %w", name, err)
	}
	if info.IsDir() {
		return File{}, false, nil
	}
	return fileFor(filepath.ToSlash(filepath.Clean(name)), info), true, nil
}

// Delete removes one file. A missing file is a no-op.
func (d *Dir) Delete(name string) (bool, error) {
	path, err := d.resolve(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat evidence %s: %w", name, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %q is a directory", ErrInvalidPath, name)
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("delete evidence %s: %w", name, err)
	}
	return true, nil
}

// ForResult lists the screenshots attached to r, in detail order.
func (d *Dir) ForResult(r types.TestResult) ([]Attachment, error) {
	out := []Attachment{}
	for _, det := range r.Details {
		for _, name := range det.Screenshots {
			a := Attachment{CaseKey: det.Key, CaseID: det.ID, Name: name}
			f, ok, err := d.Lookup(name)
			if err != nil && !errors.Is(err, ErrInvalidPath) {
				return nil, err
			}
			if ok {
				a.File = &f
			}
			out = append(out, a)
		}
	}
	return out, nil
}

// resolve maps a relative name to a path inside the directory.
func (d *Dir) resolve(name string) (string, error) {
	name = filepath.FromSlash(strings.TrimSpace(name))
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return filepath.Join(d.root, name), nil
}

func fileFor(rel string, info fs.FileInfo) File {
	return File{
		Name:      filepath.Base(rel),
		Path:      rel,
		Size:      info.Size(),
		CreatedAt: info.ModTime().UTC(),
	}
}
