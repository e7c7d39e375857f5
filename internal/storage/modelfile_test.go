package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileModelStore_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	store, err := NewFileModelStore(dir)
	if err != nil {
		t.Fatalf("Failed to create model store: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "rug-classifier", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, "rug-classifier", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	data, err := store.Load(ctx, "rug-classifier")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != `{"v":2}` {
		t.Errorf("Expected latest artifact, got %s", data)
	}

	info, err := os.Stat(store.Path("rug-classifier"))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Temporary file left behind: %s", e.Name())
		}
	}
}

func TestFileModelStore_LoadMissing(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create model store: %v", err)
	}

	_, err = store.Load(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFileModelStore_InvalidKey(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create model store: %v", err)
	}

	for _, key := range []string{"", "../escape", "a/b", ".."} {
		if err := store.Save(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("Expected error for key %q", key)
		}
	}
}

func TestFileModelStore_CancelledContext(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create model store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, "m", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(store.Path("m")); !os.IsNotExist(err) {
		t.Error("Cancelled save must not create the artifact")
	}
}
