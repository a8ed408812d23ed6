package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_GetSetDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}

	if err := m.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, err := m.Get(ctx, "k"); err != nil || got != "v" {
		t.Errorf("Get = %q, %v", got, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestMemory_TTL(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Set(ctx, "k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired key: err = %v, want ErrNotFound", err)
	}
}

func TestMemory_PushTrim(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c", "d"} {
		m.PushTrim(ctx, "list", v, 3)
	}

	got := m.List("list")
	if len(got) != 3 {
		t.Fatalf("list holds %d entries, want 3", len(got))
	}
	// Newest first; "a" fell off.
	if got[0] != "d" || got[2] != "b" {
		t.Errorf("list = %v", got)
	}
}
