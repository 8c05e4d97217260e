package fsops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// SortedDirectoryName holds sorted files under the sorted root and is
	// skipped by Inventory.
	SortedDirectoryName = "_sorted"

	directoryPermissions = 0o755

	renameTargetExistsErrorFormat = "rename %s: target %s already exists"
	invalidFileNameErrorFormat    = "rename %s: invalid file name %q"
)

// FS is an abstract filesystem used across the app and tests.
type FS interface {
	ReadFile(name string) ([]byte, error)
	Open(name string) (io.ReadCloser, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	WalkDir(root string, fn fs.WalkDirFunc) error

	Join(elem ...string) string
	Base(name string) string
	Dir(name string) string
	Ext(name string) string
	Clean(name string) string
}

// ---------- OS-backed implementation ----------

type OS struct{}

func NewOS() OS { return OS{} }

func (OS) ReadFile(name string) ([]byte, error)    { return os.ReadFile(filepath.Clean(name)) }
func (OS) Open(name string) (io.ReadCloser, error) { return os.Open(filepath.Clean(name)) }
func (OS) WriteFile(name string, b []byte, p os.FileMode) error {
	return os.WriteFile(filepath.Clean(name), b, p)
}
func (OS) Stat(name string) (fs.FileInfo, error)     { return os.Stat(filepath.Clean(name)) }
func (OS) Rename(a, b string) error                  { return os.Rename(a, b) }
func (OS) MkdirAll(path string, p os.FileMode) error { return os.MkdirAll(filepath.Clean(path), p) }
func (OS) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(filepath.Clean(root), fn)
}
func (OS) Join(elem ...string) string { return filepath.Join(elem...) }
func (OS) Base(name string) string    { return filepath.Base(name) }
func (OS) Dir(name string) string     { return filepath.Dir(name) }
func (OS) Ext(name string) string     { return filepath.Ext(name) }
func (OS) Clean(name string) string   { return filepath.Clean(name) }

// ---------- In-memory implementation (for tests/integration) ----------

type Mem struct{ Fs afero.Fs }

func NewMem() Mem { return Mem{Fs: afero.NewMemMapFs()} }

func (m Mem) ReadFile(name string) ([]byte, error) { return afero.ReadFile(m.Fs, filepath.Clean(name)) }
func (m Mem) Open(name string) (io.ReadCloser, error) {
	return m.Fs.Open(filepath.Clean(name))
}
func (m Mem) WriteFile(name string, b []byte, p os.FileMode) error {
	return afero.WriteFile(m.Fs, filepath.Clean(name), b, p)
}
func (m Mem) Stat(name string) (fs.FileInfo, error) { return m.Fs.Stat(filepath.Clean(name)) }
func (m Mem) Rename(a, b string) error              { return m.Fs.Rename(a, b) }
func (m Mem) MkdirAll(path string, p os.FileMode) error {
	return m.Fs.MkdirAll(filepath.Clean(path), p)
}
func (m Mem) WalkDir(root string, fn fs.WalkDirFunc) error {
	root = filepath.Clean(root)
	return afero.Walk(m.Fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		de := memDirEntry{info}
		return fn(p, de, nil)
	})
}

type memDirEntry struct{ os.FileInfo }

func (d memDirEntry) Type() fs.FileMode          { return d.Mode().Type() }
func (d memDirEntry) Info() (fs.FileInfo, error) { return d.FileInfo, nil }

func (Mem) Join(elem ...string) string { return filepath.Join(elem...) }
func (Mem) Base(name string) string    { return filepath.Base(name) }
func (Mem) Dir(name string) string     { return filepath.Dir(name) }
func (Mem) Ext(name string) string     { return filepath.Ext(name) }
func (Mem) Clean(name string) string   { return filepath.Clean(name) }

// ---------- High-level façade used by commands ----------

type Ops struct{ FS FS }

func NewOps(fs FS) Ops { return Ops{FS: fs} }

type FileInfo struct {
	AbsolutePath string
	BaseName     string
	Extension    string
	MIMEType     string
	SizeBytes    int64
}

// Name returns the file name with its extension.
func (info FileInfo) Name() string { return info.BaseName + info.Extension }

// Inventory walks a root directory and returns basic file metadata.
// Skips "_sorted" and dot-directories below the root. Non-recursive walks
// stay in the root directory.
func (o Ops) Inventory(root string, recursive bool) ([]FileInfo, error) {
	cleanRoot := o.FS.Clean(root)
	var out []FileInfo
	err := o.FS.WalkDir(cleanRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if o.FS.Clean(p) == cleanRoot {
				return nil
			}
			name := d.Name()
			if !recursive || name == SortedDirectoryName || strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return statErr
		}
		out = append(out, Describe(p, info.Size()))
		return nil
	})
	return out, err
}

// Describe builds FileInfo for a path without touching the filesystem.
func Describe(path string, sizeBytes int64) FileInfo {
	originalExtension := filepath.Ext(path)
	return FileInfo{
		AbsolutePath: path,
		BaseName:     strings.TrimSuffix(filepath.Base(path), originalExtension),
		Extension:    originalExtension,
		MIMEType:     MIMEType(originalExtension),
		SizeBytes:    sizeBytes,
	}
}

// Stat describes a single file.
func (o Ops) Stat(path string) (FileInfo, error) {
	info, err := o.FS.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return Describe(path, info.Size()), nil
}

// MIMEType maps an extension to a MIME type, defaulting to octet-stream.
func MIMEType(extension string) string {
	ext := strings.ToLower(extension)
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	switch ext {
	case ".3mf":
		return "application/zip"
	case ".csv", ".txt", ".md", ".json", ".log", ".yaml", ".yml":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func (o Ops) EnsureDir(path string) error {
	return o.FS.MkdirAll(filepath.Dir(path), directoryPermissions)
}
func (o Ops) MoveFile(from, to string) error { return o.FS.Rename(from, to) }
func (o Ops) FileExists(p string) bool       { _, err := o.FS.Stat(p); return err == nil }

// UniquePath returns to, or to with a "-N" suffix before the extension when
// the path is taken.
func (o Ops) UniquePath(to string) string {
	candidate := to
	ext := filepath.Ext(to)
	stem := to[:len(to)-len(ext)]
	for i := 1; o.FileExists(candidate); i++ {
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	return candidate
}

// SortedPath is root/_sorted/category/name.
func SortedPath(root string, category string, name string) string {
	return filepath.Join(root, SortedDirectoryName, category, name)
}

// MoveUnique creates the destination directory and moves from to a free path
// derived from to. It returns the path actually used.
func (o Ops) MoveUnique(from string, to string) (string, error) {
	if err := o.EnsureDir(to); err != nil {
		return "", err
	}
	destination := o.UniquePath(to)
	if err := o.MoveFile(from, destination); err != nil {
		return "", err
	}
	return destination, nil
}

// RenameInPlace renames path to newName in the same directory. It refuses
// names with separators and never overwrites an existing file.
func (o Ops) RenameInPlace(path string, newName string) (string, error) {
	if newName == "" || newName != filepath.Base(newName) || newName == "." || newName == ".." {
		return "", fmt.Errorf(invalidFileNameErrorFormat, path, newName)
	}
	destination := filepath.Join(filepath.Dir(path), newName)
	if destination == o.FS.Clean(path) {
		return destination, nil
	}
	if o.FileExists(destination) {
		return "", fmt.Errorf(renameTargetExistsErrorFormat, path, destination)
	}
	if err := o.MoveFile(path, destination); err != nil {
		return "", err
	}
	return destination, nil
}

// IsNotExist reports whether err means the path is missing.
func IsNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }
