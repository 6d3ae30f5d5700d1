package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sureshodi/anandhaa/internal/catalog"
	"github.com/sureshodi/anandhaa/internal/enum"
	"github.com/sureshodi/anandhaa/internal/invoice"
	"github.com/sureshodi/anandhaa/internal/ledger"
	"github.com/sureshodi/anandhaa/internal/session"
	"github.com/sureshodi/anandhaa/internal/snapshot"
	"github.com/sureshodi/anandhaa/internal/stock"
	"github.com/sureshodi/anandhaa/internal/totals"
	"go.uber.org/zap"
)

// Errors returned by the billing service.
var (
	ErrCustomerRequired = errors.New("customer name and mobile are required")
	ErrStockDisabled    = errors.New("stock tracking is disabled")
)

// Notifier pushes session events to connected form clients.
type Notifier interface {
	Notify(sessionID uuid.UUID, eventType string, payload any)
	CloseSession(sessionID uuid.UUID)
}

// CatalogSource supplies the current catalog. Satisfied by *catalog.Loader.
type CatalogSource interface {
	Catalog() (*catalog.Catalog, error)
	Replace(c *catalog.Catalog)
}

// Options configures a BillingService.
type Options struct {
	Shop          invoice.Shop
	CurrencyLabel string
	// Stock is the initial stock sheet. Nil disables stock tracking.
	Stock *stock.Sheet
	// Now defaults to time.Now.
	Now func() time.Time
}

// InvoiceResult is a generated invoice plus the stock outcome of the sale.
type InvoiceResult struct {
	Document invoice.Document  `json:"document"`
	Stock    *stock.SaleResult `json:"stock,omitempty"`
}

// BillingService is the single entry point for operator interactions.
type BillingService struct {
	sessions *session.Manager
	catalog  CatalogSource
	store    snapshot.Store
	notifier Notifier
	logger   *zap.Logger
	shop     invoice.Shop
	currency string
	now      func() time.Time

	stockMu sync.RWMutex
	stock   *stock.Sheet

	seqMu  sync.Mutex
	seqDay string
	seq    int
}

// NewBillingService creates a BillingService. A nil notifier discards events.
func NewBillingService(sessions *session.Manager, cat CatalogSource, store snapshot.Store, notifier Notifier, logger *zap.Logger, opts Options) *BillingService {
	if notifier == nil {
		notifier = discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &BillingService{
		sessions: sessions,
		catalog:  cat,
		store:    store,
		notifier: notifier,
		logger:   logger,
		shop:     opts.Shop,
		currency: opts.CurrencyLabel,
		now:      now,
		stock:    opts.Stock,
	}
}

type discard struct{}

func (discard) Notify(uuid.UUID, string, any) {}
func (discard) CloseSession(uuid.UUID)         {}

// NewSession opens an empty session.
func (s *BillingService) NewSession() (session.View, error) {
	sess := s.sessions.Create()
	s.logger.Info("session created", zap.String("session_id", sess.ID.String()))
	return sess.View()
}

// DeleteSession discards a session and everything in it.
func (s *BillingService) DeleteSession(id uuid.UUID) error {
	if err := s.sessions.Delete(id); err != nil {
		return err
	}
	s.notifier.CloseSession(id)
	s.logger.Info("session deleted", zap.String("session_id", id.String()))
	return nil
}

// View returns the current state of a session.
func (s *BillingService) View(id uuid.UUID) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	return sess.View()
}

// AddItem appends code x quantity to the session ledger, priced from the
// current catalog.
func (s *BillingService) AddItem(id uuid.UUID, code string, quantity int) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	cat, err := s.catalog.Catalog()
	if err != nil {
		return session.View{}, err
	}
	item, err := sess.AddItem(cat, code, quantity)
	if err != nil {
		return session.View{}, err
	}
	s.logger.Debug("item added",
		zap.String("session_id", id.String()),
		zap.String("product_code", item.ProductCode),
		zap.Int("quantity", item.Quantity),
		zap.String("amount", item.Amount.String()),
	)
	return s.publish(sess)
}

// RemoveItem deletes the line at a 1-based position.
func (s *BillingService) RemoveItem(id uuid.UUID, position int) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	if _, err := sess.RemoveAt(position); err != nil {
		return session.View{}, err
	}
	return s.publish(sess)
}

// ClearItems empties the ledger.
func (s *BillingService) ClearItems(id uuid.UUID) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	sess.ClearItems()
	return s.publish(sess)
}

// SetCustomer replaces the customer fields.
func (s *BillingService) SetCustomer(id uuid.UUID, c session.Customer) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	sess.SetCustomer(c)
	return s.publish(sess)
}

// SetAdjustments parses and sets the discount and package percentages as
// typed by the operator. Blank means zero.
func (s *BillingService) SetAdjustments(id uuid.UUID, discount, pkg string) (session.View, error) {
	d, err := totals.ParsePercent(discount)
	if err != nil {
		return session.View{}, fmt.Errorf("discount: %w", err)
	}
	p, err := totals.ParsePercent(pkg)
	if err != nil {
		return session.View{}, fmt.Errorf("package: %w", err)
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	if err := sess.SetAdjustments(d, p); err != nil {
		return session.View{}, err
	}
	return s.publish(sess)
}

// GenerateInvoice issues an invoice for the session's ledger, books the sale
// against stock and clears the ledger. render, if set, runs before anything
// is committed; if it or any check fails the session is left unchanged.
func (s *BillingService) GenerateInvoice(id uuid.UUID, render func(invoice.Document) error) (*InvoiceResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	var res InvoiceResult
	var items []ledger.LineItem
	err = sess.Checkout(func(v session.View) error {
		if strings.TrimSpace(v.Customer.Name) == "" || strings.TrimSpace(v.Customer.Mobile) == "" {
			return ErrCustomerRequired
		}
		issued := s.now()
		res.Document = invoice.NewDocument(s.nextNumber(issued), issued, s.shop, s.currency, v)
		items = make([]ledger.LineItem, len(v.Lines))
		for i, ln := range v.Lines {
			items[i] = ln.LineItem
		}
		if render != nil {
			return render(res.Document)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if sheet := s.stockSheet(); sheet != nil {
		sale := sheet.ApplySale(items)
		res.Stock = &sale
		if len(sale.Unknown) > 0 || len(sale.Oversold) > 0 {
			s.logger.Warn("stock mismatch",
				zap.String("invoice", res.Document.Number),
				zap.Strings("unknown", sale.Unknown),
				zap.Strings("oversold", sale.Oversold),
			)
		}
	}

	s.logger.Info("invoice generated",
		zap.String("session_id", id.String()),
		zap.String("invoice", res.Document.Number),
		zap.Int("lines", len(res.Document.Lines)),
		zap.String("grand_total", totals.Money(res.Document.Totals.GrandTotal)),
	)
	s.notifier.Notify(id, enum.EventInvoiceGenerated, res.Document)
	if _, err := s.publish(sess); err != nil {
		return nil, err
	}
	return &res, nil
}

// nextNumber returns INV-YYYYMMDD-NNNN. The counter restarts every day.
func (s *BillingService) nextNumber(t time.Time) string {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	day := t.Format("20060102")
	if day != s.seqDay {
		s.seqDay = day
		s.seq = 0
	}
	s.seq++
	return fmt.Sprintf("INV-%s-%04d", day, s.seq)
}

// Snapshot captures the session for later restore.
func (s *BillingService) Snapshot(id uuid.UUID) (session.Snapshot, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Restore replaces the session state with snap.
func (s *BillingService) Restore(id uuid.UUID, snap session.Snapshot) (session.View, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.View{}, err
	}
	if err := sess.Restore(snap); err != nil {
		return session.View{}, err
	}
	s.notifier.Notify(id, enum.EventSessionRestored, nil)
	return s.publish(sess)
}

// SaveSnapshot stores the session under name, replacing any earlier save.
func (s *BillingService) SaveSnapshot(ctx context.Context, id uuid.UUID, name string) (snapshot.Entry, error) {
	snap, err := s.Snapshot(id)
	if err != nil {
		return snapshot.Entry{}, err
	}
	if err := s.store.Save(ctx, name, snap); err != nil {
		return snapshot.Entry{}, err
	}
	s.logger.Info("snapshot saved", zap.String("session_id", id.String()), zap.String("name", name))
	return snapshot.Entry{
		Name:     name,
		SavedAt:  snap.SavedAt,
		Customer: snap.Customer.Name,
		Items:    len(snap.Items),
	}, nil
}

// LoadSnapshot restores the named snapshot into the session.
func (s *BillingService) LoadSnapshot(ctx context.Context, id uuid.UUID, name string) (session.View, error) {
	if _, err := s.sessions.Get(id); err != nil {
		return session.View{}, err
	}
	snap, err := s.store.Load(ctx, name)
	if err != nil {
		return session.View{}, err
	}
	return s.Restore(id, snap)
}

// ListSnapshots lists saved snapshots, newest first.
func (s *BillingService) ListSnapshots(ctx context.Context) ([]snapshot.Entry, error) {
	return s.store.List(ctx)
}

// DeleteSnapshot removes a saved snapshot.
func (s *BillingService) DeleteSnapshot(ctx context.Context, name string) error {
	return s.store.Delete(ctx, name)
}

// Catalog returns the current catalog.
func (s *BillingService) Catalog() (*catalog.Catalog, error) {
	return s.catalog.Catalog()
}

// ReplaceCatalog loads an uploaded catalog and makes it current. When stock
// tracking is on, the uploaded sheet also becomes the stock sheet.
func (s *BillingService) ReplaceCatalog(name string, r io.Reader) (*catalog.Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogLoad, err)
	}
	rows, err := catalog.ReadTable(name, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogLoad, err)
	}
	cat, err := catalog.FromRows(rows)
	if err != nil {
		return nil, err
	}

	s.stockMu.Lock()
	if s.stock != nil {
		sheet, err := stock.FromTable(rows)
		if err != nil {
			s.stockMu.Unlock()
			return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogLoad, err)
		}
		s.stock = sheet
	}
	s.stockMu.Unlock()

	s.catalog.Replace(cat)
	s.logger.Info("catalog replaced",
		zap.String("source", name),
		zap.Int("products", cat.Len()),
		zap.Int("skipped", cat.Skipped()),
	)
	return cat, nil
}

// Stock returns the stock sheet, or ErrStockDisabled.
func (s *BillingService) Stock() (*stock.Sheet, error) {
	sheet := s.stockSheet()
	if sheet == nil {
		return nil, ErrStockDisabled
	}
	return sheet, nil
}

func (s *BillingService) stockSheet() *stock.Sheet {
	s.stockMu.RLock()
	defer s.stockMu.RUnlock()
	return s.stock
}

// RunJanitor discards sessions idle for longer than maxIdle until ctx ends.
func (s *BillingService) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	s.sessions.Run(ctx, interval, maxIdle, func(ids []uuid.UUID) {
		for _, id := range ids {
			s.notifier.CloseSession(id)
			s.logger.Info("session expired", zap.String("session_id", id.String()))
		}
	})
}

// publish sends the session's current view to listeners and returns it.
func (s *BillingService) publish(sess *session.Session) (session.View, error) {
	v, err := sess.View()
	if err != nil {
		return session.View{}, err
	}
	s.notifier.Notify(sess.ID, enum.EventLedgerUpdated, v)
	return v, nil
}
