// Package snapshot persists named session snapshots so an operator can park
// an order and reload it later.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/sureshodi/anandhaa/internal/session"
)

// Errors returned by snapshot stores.
var (
	ErrNotFound    = errors.New("snapshot not found")
	ErrInvalidName = errors.New("snapshot name must be 1-64 letters, digits, '-' or '_'")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Entry describes a stored snapshot without its body. Error is set when the
// stored body cannot be decoded; such entries can be deleted but not loaded.
type Entry struct {
	Name     string    `json:"name"`
	SavedAt  time.Time `json:"saved_at"`
	Customer string    `json:"customer"`
	Items    int       `json:"items"`
	Error    string    `json:"error,omitempty"`
}

// Store saves and loads snapshots by name. Save overwrites.
type Store interface {
	Save(ctx context.Context, name string, snap session.Snapshot) error
	Load(ctx context.Context, name string) (session.Snapshot, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, name string) error
}

// ValidateName checks a snapshot name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func entryFor(name string, snap session.Snapshot) Entry {
	return Entry{
		Name:     name,
		SavedAt:  snap.SavedAt,
		Customer: snap.Customer.Name,
		Items:    len(snap.Items),
	}
}
