package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sureshodi/anandhaa/internal/ledger"
	"github.com/sureshodi/anandhaa/internal/session"
	"github.com/sureshodi/anandhaa/internal/snapshot"
)

func TestImportSnapshots(t *testing.T) {
	ctx := context.Background()
	srcDir := t.TempDir()
	src, err := snapshot.NewFileStore(srcDir)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	snap := session.Snapshot{
		Version:  session.SnapshotVersion,
		SavedAt:  time.Date(2024, 10, 30, 9, 0, 0, 0, time.UTC),
		Customer: session.Customer{Name: "Ravi", Mobile: "9840000000"},
		Items: []ledger.LineItem{{
			ProductCode: "SP10E", Quantity: 2,
			Rate: decimal.RequireFromString("12.50"), Amount: decimal.RequireFromString("25"),
		}},
	}
	for _, name := range []string{"ravi", "kumar"} {
		if err := src.Save(ctx, name, snap); err != nil {
			t.Fatal(err)
		}
	}
	// Unreadable files are skipped.
	if err := os.WriteFile(filepath.Join(srcDir, "broken.json"), []byte(`{"version":1,"items":[{"quantity":-1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := importSnapshots(ctx, src, dst)
	if err != nil {
		t.Fatalf("importSnapshots: %v", err)
	}
	if n != 2 {
		t.Errorf("imported: got %d, want 2", n)
	}
	if _, err := dst.Load(ctx, "kumar"); err != nil {
		t.Errorf("kumar not imported: %v", err)
	}
}
