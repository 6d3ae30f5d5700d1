package session

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sureshodi/anandhaa/internal/ledger"
	"github.com/sureshodi/anandhaa/internal/totals"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = 1

// Snapshot captures enough state to rebuild an equivalent session.
// Items carry their own frozen rates, so restoring does not consult the catalog.
type Snapshot struct {
	Version         int               `json:"version"`
	SavedAt         time.Time         `json:"saved_at"`
	Customer        Customer          `json:"customer"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	PackagePercent  decimal.Decimal   `json:"package_percent"`
	Items           []ledger.LineItem `json:"items"`
}

// Snapshot captures the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Version:         SnapshotVersion,
		SavedAt:         s.now().UTC(),
		Customer:        s.customer,
		DiscountPercent: s.discount,
		PackagePercent:  s.pkg,
		Items:           s.ledger.Items(),
	}
}

// Restore replaces the session state with snap. On error the session is
// left unchanged.
func (s *Session) Restore(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	l, err := ledger.FromItems(snap.Items)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.customer = snap.Customer
	s.discount = snap.DiscountPercent
	s.pkg = snap.PackagePercent
	s.ledger = l
	return nil
}

// Validate checks the version and percentages.
func (snap Snapshot) Validate() error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, snap.Version)
	}
	if err := totals.ValidatePercent(snap.DiscountPercent); err != nil {
		return fmt.Errorf("%w: discount: %w", ErrBadSnapshot, err)
	}
	if err := totals.ValidatePercent(snap.PackagePercent); err != nil {
		return fmt.Errorf("%w: package: %w", ErrBadSnapshot, err)
	}
	return nil
}

// Totals computes the breakdown the snapshot represents.
func (snap Snapshot) Totals() (totals.Breakdown, error) {
	return totals.Compute(snap.Items, snap.DiscountPercent, snap.PackagePercent)
}

// DecodeSnapshot reads and validates a JSON snapshot.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	if _, err := ledger.FromItems(snap.Items); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	return snap, nil
}

// EncodeSnapshot writes snap as indented JSON.
func EncodeSnapshot(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
