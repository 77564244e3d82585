package oui

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
)

// DefaultFile is the file name probed in each default location.
const DefaultFile = "manuf.txt"

// OSFS opens paths on the host filesystem exactly as given, relative paths
// included.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// DefaultPaths returns the locations probed when no file is configured: the
// working directory, the user's home directory and /etc.
func DefaultPaths(home string) []string {
	paths := []string{DefaultFile}
	if home != "" {
		paths = append(paths, filepath.Join(home, DefaultFile))
	}
	return append(paths, filepath.Join("/etc", DefaultFile))
}

// Load reads the manufacturer file at path.
func Load(fsys fs.FS, path string) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read %s", path)
	}
	return t, nil
}

// LoadFirst loads the first of paths that exists and returns the path used.
// When none exists the table is empty and the path is "": every lookup then
// resolves to Unknown. Errors other than a missing file are returned.
func LoadFirst(fsys fs.FS, paths []string) (*Table, string, error) {
	for _, p := range paths {
		t, err := Load(fsys, p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", pkgerrors.Wrapf(err, "load manufacturer file %s", p)
		}
		return t, p, nil
	}
	return New(), "", nil
}
