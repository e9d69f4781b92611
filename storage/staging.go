package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Staging collects a complete report in a temporary sibling of the report
// directory. Commit swaps it into place; until then the previous report is
// left untouched.
type Staging struct {
	dir string
	tmp string
}

// NewStaging creates an empty staging directory next to dir.
func NewStaging(dir string) (*Staging, error) {
	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("stage: create output dir: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-*")
	if err != nil {
		return nil, fmt.Errorf("stage: create staging dir: %w", err)
	}
	if err := os.Chmod(tmp, 0755); err != nil {
		os.RemoveAll(tmp)
		return nil, fmt.Errorf("stage: chmod staging dir: %w", err)
	}
	return &Staging{dir: dir, tmp: tmp}, nil
}

// Dir is where writers should put the new report.
func (s *Staging) Dir() string { return s.tmp }

// Commit replaces the report directory with the staged one.
func (s *Staging) Commit() error {
	old := s.tmp + ".old"
	hadOld := true
	if err := os.Rename(s.dir, old); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stage: move previous report aside: %w", err)
		}
		hadOld = false
	}

	if err := os.Rename(s.tmp, s.dir); err != nil {
		if hadOld {
			if rerr := os.Rename(old, s.dir); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}
		return fmt.Errorf("stage: publish report: %w", err)
	}

	if hadOld {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("stage: remove previous report: %w", err)
		}
	}
	return nil
}

// Discard removes the staging directory. It is a no-op after Commit.
func (s *Staging) Discard() error {
	return os.RemoveAll(s.tmp)
}
