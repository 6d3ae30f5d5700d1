package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sureshodi/anandhaa/internal/ledger"
	"github.com/sureshodi/anandhaa/internal/totals"
)

// Errors returned by session operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyLedger     = errors.New("ledger is empty")
	ErrBadSnapshot     = errors.New("invalid snapshot")
)

// Customer holds the free-text customer fields of the form.
type Customer struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
}

// View is a consistent read of a session at one point in time.
type View struct {
	ID       uuid.UUID        `json:"id"`
	Customer Customer         `json:"customer"`
	Lines    []ledger.Line    `json:"lines"`
	Totals   totals.Breakdown `json:"totals"`
}

// Session is one operator's working state. Each method holds the session
// lock for its whole duration, so operations never interleave.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu        sync.Mutex
	customer  Customer
	discount  decimal.Decimal
	pkg       decimal.Decimal
	ledger    *ledger.Ledger
	touchedAt time.Time
	now       func() time.Time
}

func newSession(id uuid.UUID, now func() time.Time) *Session {
	t := now()
	return &Session{
		ID:        id,
		CreatedAt: t,
		ledger:    ledger.New(),
		touchedAt: t,
		now:       now,
	}
}

func (s *Session) touch() { s.touchedAt = s.now() }

// TouchedAt is the time of the last operation.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// AddItem appends a product to the ledger.
func (s *Session) AddItem(cat ledger.Lookuper, code string, quantity int) (ledger.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.ledger.Add(cat, code, quantity)
}

// RemoveAt removes the line at the serial position currently shown.
func (s *Session) RemoveAt(position int) (ledger.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.ledger.RemoveAt(position)
}

// ClearItems empties the ledger.
func (s *Session) ClearItems() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.ledger.Clear()
}

// SetCustomer replaces the customer fields.
func (s *Session) SetCustomer(c Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.customer = Customer{
		Name:    strings.TrimSpace(c.Name),
		Mobile:  strings.TrimSpace(c.Mobile),
		Address: strings.TrimSpace(c.Address),
	}
}

// SetAdjustments sets the discount and package percentages.
// Neither is changed if either is out of range.
func (s *Session) SetAdjustments(discountPercent, packagePercent decimal.Decimal) error {
	if err := totals.ValidatePercent(discountPercent); err != nil {
		return fmt.Errorf("discount: %w", err)
	}
	if err := totals.ValidatePercent(packagePercent); err != nil {
		return fmt.Errorf("package: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.discount = discountPercent
	s.pkg = packagePercent
	return nil
}

// View returns the current state with serial numbers and totals.
func (s *Session) View() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() (View, error) {
	b, err := totals.Compute(s.ledger.Items(), s.discount, s.pkg)
	if err != nil {
		return View{}, err
	}
	return View{
		ID:       s.ID,
		Customer: s.customer,
		Lines:    s.ledger.Lines(),
		Totals:   b,
	}, nil
}

// Checkout runs fn with the current view and clears the ledger if fn
// succeeds. Customer fields and percentages are kept for the next invoice.
func (s *Session) Checkout(fn func(View) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.ledger.Len() == 0 {
		return ErrEmptyLedger
	}
	v, err := s.viewLocked()
	if err != nil {
		return err
	}
	if err := fn(v); err != nil {
		return err
	}
	s.ledger.Clear()
	return nil
}
