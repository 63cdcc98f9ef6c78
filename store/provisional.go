package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/moyoez/qrdrop/tool"
	"github.com/moyoez/qrdrop/types"
)

var statFile = os.Stat

// Provisional is a written but not yet visible file. Exactly one of Commit or
// Discard should be called.
type Provisional struct {
	category  types.Category
	name      string
	tmpPath   string
	finalPath string
	size      int64
	closed    bool
}

// SaveProvisional writes r to a hidden file in the category directory.
// I/O failures are WriteFailure errors and leave nothing behind.
func (s *Store) SaveProvisional(r io.Reader, category types.Category, name string) (*Provisional, error) {
	dir, err := s.ResolveDirectory(category)
	if err != nil {
		return nil, err
	}
	if !ValidName(name) {
		return nil, types.NewError(types.KindWriteFailure, fmt.Errorf("%w: %q", ErrInvalidName, name))
	}

	tmpPath := filepath.Join(dir, "."+tool.GenerateRandomUUID()+provisionalExt)
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, types.NewError(types.KindWriteFailure, fmt.Errorf("create file failed: %w", err))
	}

	written, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, types.NewError(types.KindWriteFailure, fmt.Errorf("write file failed: %w", err))
	}

	return &Provisional{
		category:  category,
		name:      name,
		tmpPath:   tmpPath,
		finalPath: filepath.Join(dir, name),
		size:      written,
	}, nil
}

// Path is the location of the provisional bytes, for read-back verification.
func (p *Provisional) Path() string {
	return p.tmpPath
}

func (p *Provisional) Name() string {
	return p.name
}

func (p *Provisional) Size() int64 {
	return p.size
}

// Commit moves the file to its final name and returns its record.
func (p *Provisional) Commit() (types.FileRecord, error) {
	if p.closed {
		return types.FileRecord{}, errors.New("provisional file already closed")
	}
	p.closed = true
	if err := os.Rename(p.tmpPath, p.finalPath); err != nil {
		_ = os.Remove(p.tmpPath)
		return types.FileRecord{}, types.NewError(types.KindWriteFailure, fmt.Errorf("commit file failed: %w", err))
	}
	tool.DefaultLogger.Debugf("[Store] Saved %s (%d bytes)", p.finalPath, p.size)

	// the file is committed; a failed stat only loses the exact mtime
	info, err := statFile(p.finalPath)
	if err != nil {
		tool.DefaultLogger.Warnf("[Store] Stat %s after commit failed: %v", p.finalPath, err)
		return types.FileRecord{
			Category:     p.category,
			Name:         p.name,
			Path:         p.finalPath,
			SizeBytes:    p.size,
			LastModified: time.Now(),
		}, nil
	}
	return recordFromInfo(p.category, p.finalPath, info), nil
}

// Discard removes the provisional file. It is safe to call after Commit.
func (p *Provisional) Discard() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if err := os.Remove(p.tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to discard provisional file: %w", err)
	}
	return nil
}

// SweepProvisional removes provisional files left by an interrupted receive
// and returns how many were removed.
func (s *Store) SweepProvisional() (int, error) {
	removed := 0
	for _, category := range types.Categories() {
		dir, err := s.categoryDir(category)
		if err != nil {
			return removed, err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !isProvisional(entry.Name()) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
				return removed, err
			}
			removed++
		}
	}
	if removed > 0 {
		tool.DefaultLogger.Infof("[Store] Removed %d stale provisional files", removed)
	}
	return removed, nil
}
