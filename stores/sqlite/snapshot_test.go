// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdhender/aresmem/stores/sqlite"
	"github.com/mdhender/aresmem/web/store"
)

func TestSnapshot_Write(t *testing.T) {
	ctx := context.Background()
	mem, err := store.NewMemoryStoreFromLines(
		`{"case_id":"c1","step_id":1,"fps":30,"step_name":"incision"}`,
		`{"case_id":"c1","step_id":2,"video_meta":{"fps":60}}`,
		`{"case_id":"c2","step_id":1,"metrics":{"bleeding_score":0.3}}`,
	)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	records, _ := mem.Load(ctx)

	snap, err := sqlite.Create(ctx, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer snap.Close()

	if err := snap.Write(ctx, "test.jsonl", records); err != nil {
		t.Fatalf("write: %v", err)
	}

	stats, err := snap.TableStats(ctx)
	if err != nil {
		t.Fatalf("table stats: %v", err)
	}
	if stats["records"] != 3 {
		t.Errorf("records: want 3, got %d", stats["records"])
	}
	if stats["meta"] != 4 {
		t.Errorf("meta: want 4, got %d", stats["meta"])
	}
	n, err := snap.DistinctCases(ctx)
	if err != nil {
		t.Fatalf("distinct cases: %v", err)
	}
	if n != 2 {
		t.Errorf("distinct cases: want 2, got %d", n)
	}
}

func TestCreate_RefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ares.sqlite")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := sqlite.Create(context.Background(), path); err == nil {
		t.Errorf("expected error for existing file")
	}
}

func TestCreate_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ares.sqlite")
	snap, err := sqlite.Create(ctx, path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := snap.Write(ctx, "empty.jsonl", nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := snap.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected database file: %v", err)
	}
}
