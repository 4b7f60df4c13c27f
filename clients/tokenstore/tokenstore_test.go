package tokenstore

import (
	"path/filepath"
	"testing"
)

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	store := newTestStore(t)

	access, refresh, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if access != "" || refresh != "" {
		t.Errorf("expected empty tokens, got: %q / %q", access, refresh)
	}
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("access-1", "refresh-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	access, refresh, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if access != "access-1" || refresh != "refresh-1" {
		t.Errorf("unexpected tokens: %q / %q", access, refresh)
	}
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("access-1", "refresh-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save("access-2", "refresh-2"); err != nil {
		t.Fatalf("second save: %v", err)
	}

	access, refresh, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if access != "access-2" || refresh != "refresh-2" {
		t.Errorf("expected replaced tokens, got: %q / %q", access, refresh)
	}
}

func TestSQLiteStore_Clear(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("access-1", "refresh-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	access, refresh, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if access != "" || refresh != "" {
		t.Errorf("expected cleared tokens, got: %q / %q", access, refresh)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.db")

	store, err := NewSQLiteStore(nil, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Save("access-1", "refresh-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteStore(nil, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	access, refresh, err := reopened.Load()
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if access != "access-1" || refresh != "refresh-1" {
		t.Errorf("tokens did not survive reopen: %q / %q", access, refresh)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	if err := store.Save("a", "r"); err != nil {
		t.Fatalf("save: %v", err)
	}
	access, refresh, _ := store.Load()
	if access != "a" || refresh != "r" {
		t.Errorf("unexpected tokens: %q / %q", access, refresh)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	access, refresh, _ = store.Load()
	if access != "" || refresh != "" {
		t.Errorf("expected cleared tokens, got: %q / %q", access, refresh)
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(nil, filepath.Join(t.TempDir(), "tokens.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
