package stream

import (
	"fmt"
	"io/fs"
	"path/filepath"

	errs "github.com/matzehuels/imgflow/pkg/errors"
	"github.com/matzehuels/imgflow/pkg/vfile"
)

// Glob reads the files under base whose relative path matches any of
// patterns, in lexical order. A relative base is resolved against cwd.
func Glob(cwd, base string, patterns ...string) ([]*vfile.File, error) {
	if len(patterns) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "no file patterns given")
	}
	matchers := make([]*Matcher, len(patterns))
	for i, p := range patterns {
		m, err := CompileMatcher(p)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid pattern %q", p)
		}
		matchers[i] = m
	}

	if !filepath.IsAbs(base) {
		base = filepath.Join(cwd, base)
	}

	var files []*vfile.File
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, m := range matchers {
			if m.Match(rel) {
				f, err := vfile.Read(cwd, base, path)
				if err != nil {
					return err
				}
				files = append(files, f)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", base, err)
	}
	return files, nil
}

// WriteAll writes files under dest at their relative paths and returns the
// written paths. Null files are skipped.
func WriteAll(dest string, files []*vfile.File) ([]string, error) {
	var written []string
	for _, f := range files {
		path, err := vfile.Write(dest, f)
		if err != nil {
			return written, err
		}
		if path != "" {
			written = append(written, path)
		}
	}
	return written, nil
}
