package localstate

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SetGet(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(KeyToken, "tok_abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(KeyToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "tok_abc" {
		t.Fatalf("Get=%q, want %q", got, "tok_abc")
	}

	// Overwrite
	if err := store.Set(KeyToken, "tok_def"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got2, _ := store.Get(KeyToken)
	if got2 != "tok_def" {
		t.Fatalf("Get after overwrite=%q, want %q", got2, "tok_def")
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get("no_such_key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("Get missing=%q, want empty", got)
	}
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set(KeyActiveSession, "sess_1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(KeyActiveSession); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ := store.Get(KeyActiveSession)
	if got != "" {
		t.Fatalf("Get after delete=%q, want empty", got)
	}

	// Deleting a missing key is fine
	if err := store.Delete("no_such_key"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
