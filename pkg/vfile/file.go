// Package vfile defines the virtual file records that flow through a stream
// pipeline.
//
// A [File] carries a path, the base directory it was discovered under, and
// either buffered contents, a stream, or nothing at all (a null file, used
// for directories and placeholders). Stages treat admitted files as
// borrowed: they build new files with [File.With] or [File.Clone] instead of
// editing the input.
package vfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File is a virtual file.
type File struct {
	Cwd      string    // working directory the run started in
	Base     string    // directory the file was discovered under
	Path     string    // absolute path
	Contents []byte    // buffered contents
	Stream   io.Reader // streamed contents, mutually exclusive with Contents
}

// New creates a buffered file. A relative base is resolved against cwd and
// a relative path against the resolved base, as in [File.With].
func New(cwd, base, path string, contents []byte) *File {
	base = abs(cwd, base)
	return &File{
		Cwd:      cwd,
		Base:     base,
		Path:     abs(base, path),
		Contents: contents,
	}
}

// IsNull reports whether the file has neither contents nor a stream.
func (f *File) IsNull() bool {
	return f.Contents == nil && f.Stream == nil
}

// IsStream reports whether the file contents are streamed.
func (f *File) IsStream() bool {
	return f.Stream != nil
}

// Relative returns the slash-separated path relative to Base.
// If Path is not under Base the cleaned Path is returned.
func (f *File) Relative() string {
	rel, err := filepath.Rel(f.Base, f.Path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(filepath.Clean(f.Path))
	}
	return filepath.ToSlash(rel)
}

// Ext returns the extension of Path including the leading dot.
func (f *File) Ext() string {
	return filepath.Ext(f.Path)
}

// SetExt replaces the extension of Path. ext may be given with or without
// the leading dot; an empty ext strips the extension.
func (f *File) SetExt(ext string) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f.Path = strings.TrimSuffix(f.Path, filepath.Ext(f.Path)) + ext
}

// Clone returns a deep copy. A stream is shared, not duplicated.
func (f *File) Clone() *File {
	c := *f
	if f.Contents != nil {
		c.Contents = bytes.Clone(f.Contents)
	}
	return &c
}

// With returns a copy of f with a new path (relative paths are resolved
// against Base) and contents.
func (f *File) With(path string, contents []byte) *File {
	return &File{
		Cwd:      f.Cwd,
		Base:     f.Base,
		Path:     abs(f.Base, path),
		Contents: contents,
	}
}

// String implements fmt.Stringer.
func (f *File) String() string {
	switch {
	case f.IsNull():
		return fmt.Sprintf("<File %q null>", f.Relative())
	case f.IsStream():
		return fmt.Sprintf("<File %q stream>", f.Relative())
	default:
		return fmt.Sprintf("<File %q %d bytes>", f.Relative(), len(f.Contents))
	}
}

// Read loads the file at path, discovered under base. A relative path is
// resolved against base.
func Read(cwd, base, path string) (*File, error) {
	f := New(cwd, base, path, nil)
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Relative(), err)
	}
	f.Contents = data
	return f, nil
}

// Write stores f under dest at its relative path and returns the written path.
// Null files are skipped; stream files are copied.
func Write(dest string, f *File) (string, error) {
	if f.IsNull() {
		return "", nil
	}
	out := filepath.Join(dest, filepath.FromSlash(f.Relative()))
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(out), err)
	}

	if f.IsStream() {
		w, err := os.Create(out)
		if err != nil {
			return "", fmt.Errorf("create %s: %w", out, err)
		}
		defer w.Close()
		if _, err := io.Copy(w, f.Stream); err != nil {
			return "", fmt.Errorf("write %s: %w", out, err)
		}
		return out, w.Close()
	}

	if err := os.WriteFile(out, f.Contents, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}

func abs(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}
