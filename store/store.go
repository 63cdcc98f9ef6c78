// Package store keeps transferred files in one directory per category under a
// common root.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moyoez/qrdrop/tool"
	"github.com/moyoez/qrdrop/types"
)

const (
	uniqueNameFormat = "20060102_150405"
	provisionalExt   = ".part"
)

var ErrInvalidName = errors.New("invalid file name")

// Store is a categorized file store rooted at a single directory.
type Store struct {
	root string
	now  func() time.Time
}

// New creates the root directory if needed.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Store{root: root, now: time.Now}, nil
}

// SetClock replaces the time source used by GenerateUniqueName.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Root() string {
	return s.root
}

// ResolveDirectory returns the category directory, creating it if absent.
func (s *Store) ResolveDirectory(category types.Category) (string, error) {
	dir, err := s.categoryDir(category)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", types.NewError(types.KindWriteFailure, fmt.Errorf("failed to create directory: %w", err))
	}
	return dir, nil
}

func (s *Store) categoryDir(category types.Category) (string, error) {
	if !category.Valid() {
		return "", &types.TransferError{Kind: types.KindUnknownCategory, Field: "category", Err: fmt.Errorf("unknown category %q", category)}
	}
	return filepath.Join(s.root, category.Dir()), nil
}

// GenerateUniqueName returns FILE_<yyyyMMdd_HHmmss>.<ext of originalName>.
// Two calls within the same second return the same name.
func (s *Store) GenerateUniqueName(originalName string) string {
	name := "FILE_" + s.now().Format(uniqueNameFormat)
	if ext := Extension(originalName); ext != "" {
		name += "." + ext
	}
	return name
}

// Save writes r to the category directory under name, replacing any existing
// file. The write is atomic: readers never observe a partial file.
func (s *Store) Save(r io.Reader, category types.Category, name string) (types.FileRecord, error) {
	p, err := s.SaveProvisional(r, category, name)
	if err != nil {
		return types.FileRecord{}, err
	}
	return p.Commit()
}

// Import saves r under a freshly generated name derived from originalName.
func (s *Store) Import(r io.Reader, category types.Category, originalName string) (types.FileRecord, error) {
	return s.Save(r, category, s.GenerateUniqueName(originalName))
}

// List enumerates files in a category. The order is unspecified.
func (s *Store) List(category types.Category) ([]types.FileRecord, error) {
	dir, err := s.categoryDir(category)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []types.FileRecord{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	records := make([]types.FileRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || isProvisional(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		records = append(records, recordFromInfo(category, filepath.Join(dir, entry.Name()), info))
	}
	return records, nil
}

// ListAll enumerates every category.
func (s *Store) ListAll() ([]types.FileRecord, error) {
	var all []types.FileRecord
	for _, category := range types.Categories() {
		records, err := s.List(category)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// Lookup returns the record for name in category, or os.ErrNotExist.
func (s *Store) Lookup(category types.Category, name string) (types.FileRecord, error) {
	path, err := s.filePath(category, name)
	if err != nil {
		return types.FileRecord{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return types.FileRecord{}, err
	}
	if info.IsDir() {
		return types.FileRecord{}, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return recordFromInfo(category, path, info), nil
}

// Open opens a stored file for reading.
func (s *Store) Open(record types.FileRecord) (*os.File, error) {
	path, err := s.filePath(record.Category, record.Name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the file behind record. A missing file reports false, nil.
func (s *Store) Delete(record types.FileRecord) (bool, error) {
	path, err := s.filePath(record.Category, record.Name)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete file: %w", err)
	}
	tool.DefaultLogger.Debugf("[Store] Deleted %s", path)
	return true, nil
}

func (s *Store) filePath(category types.Category, name string) (string, error) {
	dir, err := s.categoryDir(category)
	if err != nil {
		return "", err
	}
	if !ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(dir, name), nil
}

// ValidName reports whether name is a plain file name that stays inside its
// category directory.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return false
	}
	return !isProvisional(name)
}

func isProvisional(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, provisionalExt)
}

func recordFromInfo(category types.Category, path string, info os.FileInfo) types.FileRecord {
	return types.FileRecord{
		Category:     category,
		Name:         info.Name(),
		Path:         path,
		SizeBytes:    info.Size(),
		LastModified: info.ModTime(),
	}
}
