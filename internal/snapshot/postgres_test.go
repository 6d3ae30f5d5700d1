package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sureshodi/anandhaa/internal/session"
)

// --- Mock implementations ---

type storedRow struct {
	savedAt time.Time
	body    []byte
}

// mockDB emulates the invoice_snapshots table in memory.
type mockDB struct {
	rows    map[string]storedRow
	execErr error
	execs   []string
}

func newMockDB() *mockDB {
	return &mockDB{rows: make(map[string]storedRow)}
}

func (m *mockDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execs = append(m.execs, sql)
	if m.execErr != nil {
		return pgconn.CommandTag{}, m.execErr
	}
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		m.rows[args[0].(string)] = storedRow{savedAt: args[1].(time.Time), body: args[2].([]byte)}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.HasPrefix(sql, "DELETE"):
		name := args[0].(string)
		if _, ok := m.rows[name]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(m.rows, name)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (m *mockDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	r, ok := m.rows[args[0].(string)]
	return mockRow{found: ok, body: r.body}
}

func (m *mockDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	var entries []Entry
	for name, r := range m.rows {
		var snap session.Snapshot
		if err := json.Unmarshal(r.body, &snap); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: name, SavedAt: r.savedAt, Customer: snap.Customer.Name, Items: len(snap.Items)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SavedAt.After(entries[j].SavedAt) })
	return &mockRows{entries: entries, idx: -1}, nil
}

type mockRow struct {
	found bool
	body  []byte
}

func (r mockRow) Scan(dest ...any) error {
	if !r.found {
		return pgx.ErrNoRows
	}
	*dest[0].(*[]byte) = r.body
	return nil
}

// mockRows implements pgx.Rows over a fixed slice.
// The unused methods panic so we catch accidental calls.
type mockRows struct {
	entries []Entry
	idx     int
	closed  bool
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return nil }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { panic("not implemented") }
func (r *mockRows) Values() ([]any, error)                       { panic("not implemented") }
func (r *mockRows) RawValues() [][]byte                          { panic("not implemented") }
func (r *mockRows) Conn() *pgx.Conn                              { panic("not implemented") }

func (r *mockRows) Next() bool {
	r.idx++
	return r.idx < len(r.entries)
}

func (r *mockRows) Scan(dest ...any) error {
	e := r.entries[r.idx]
	*dest[0].(*string) = e.Name
	*dest[1].(*time.Time) = e.SavedAt
	*dest[2].(*string) = e.Customer
	*dest[3].(*int) = e.Items
	return nil
}

// --- Tests ---

func TestPGStore_EnsureSchema(t *testing.T) {
	db := newMockDB()
	if err := NewPGStore(db).EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(db.execs) != 1 || db.execs[0] != Schema {
		t.Errorf("execs: %v", db.execs)
	}
}

func TestPGStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newMockDB()
	store := NewPGStore(db)
	want := sampleSnapshot("Ravi", time.Date(2024, 10, 30, 9, 0, 0, 0, time.UTC))

	if err := store.Save(ctx, "ravi", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "ravi")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wantTotals, _ := want.Totals()
	gotTotals, _ := got.Totals()
	if !gotTotals.Equal(wantTotals) {
		t.Errorf("totals differ: %+v vs %+v", gotTotals, wantTotals)
	}
}

func TestPGStore_LoadMissing(t *testing.T) {
	_, err := NewPGStore(newMockDB()).Load(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestPGStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewPGStore(newMockDB())
	base := time.Date(2024, 10, 30, 9, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, "a", sampleSnapshot("Anbu", base)); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "b", sampleSnapshot("Bala", base.Add(time.Minute))); err != nil {
		t.Fatal(err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name != "b" || entries[0].Customer != "Bala" || entries[1].Items != 1 {
		t.Errorf("entries: %+v", entries)
	}
}

func TestPGStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewPGStore(newMockDB())
	if err := store.Save(ctx, "x", sampleSnapshot("X", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestPGStore_ExecError(t *testing.T) {
	db := newMockDB()
	db.execErr = errors.New("connection reset")
	err := NewPGStore(db).Save(context.Background(), "x", sampleSnapshot("X", time.Now()))
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("got %v", err)
	}
}

func TestPGStore_InvalidName(t *testing.T) {
	db := newMockDB()
	err := NewPGStore(db).Save(context.Background(), "bad name", sampleSnapshot("X", time.Now()))
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("got %v, want ErrInvalidName", err)
	}
	if len(db.execs) != 0 {
		t.Error("exec called for invalid name")
	}
}
