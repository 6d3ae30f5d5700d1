package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sureshodi/anandhaa/internal/session"
)

const fileExt = ".json"

// FileStore keeps one JSON file per snapshot in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Save writes the snapshot atomically (temp file + rename).
func (s *FileStore) Save(_ context.Context, name string, snap session.Snapshot) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := session.EncodeSnapshot(&buf, snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot by name.
func (s *FileStore) Load(_ context.Context, name string) (session.Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return session.Snapshot{}, err
	}
	f, err := os.Open(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return session.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return session.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return session.DecodeSnapshot(f)
}

// List returns every snapshot, newest first. A file that fails to decode is
// listed with Error set and its modification time as SavedAt.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}
	var out []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), fileExt) {
			continue
		}
		name := strings.TrimSuffix(de.Name(), fileExt)
		if ValidateName(name) != nil {
			continue
		}
		snap, err := s.Load(ctx, name)
		if err != nil {
			entry := Entry{Name: name, Error: err.Error()}
			if info, statErr := de.Info(); statErr == nil {
				entry.SavedAt = info.ModTime().UTC()
			}
			out = append(out, entry)
			continue
		}
		out = append(out, entryFor(name, snap))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, nil
}

// Delete removes a snapshot.
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}
