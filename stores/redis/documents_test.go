package redis

import (
	"context"
	"errors"
	"testing"

	"docsync-server/core"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) core.DocumentStore {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDocumentStoreWithClient(client)
}

func TestCreate_Success(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	doc := &core.Document{ID: "doc1", State: core.DefaultState()}
	stored, err := store.Create(ctx, doc)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if !stored.State.Equal(core.DefaultState()) {
		t.Errorf("Create() state mismatch: got %s", stored.State)
	}
}

func TestCreate_FirstWriterWins(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	first := core.DocumentState(`{"type":"doc","content":[{"n":1}]}`)
	second := core.DocumentState(`{"type":"doc","content":[{"n":2}]}`)

	if _, err := store.Create(ctx, &core.Document{ID: "doc1", State: first}); err != nil {
		t.Fatalf("First Create() failed: %v", err)
	}
	stored, err := store.Create(ctx, &core.Document{ID: "doc1", State: second})
	if err != nil {
		t.Fatalf("Second Create() failed: %v", err)
	}
	if !stored.State.Equal(first) {
		t.Errorf("Second create must return the first writer's state: got %s, want %s", stored.State, first)
	}
}

func TestFindID_Success(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	state := core.DocumentState(`{"type":"doc","content":[{"type":"paragraph"}]}`)
	if _, err := store.Create(ctx, &core.Document{ID: "doc1", State: state}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	retrieved, err := store.FindID(ctx, "doc1")
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if !retrieved.State.Equal(state) {
		t.Errorf("FindID() state mismatch: got %s, want %s", retrieved.State, state)
	}
}

func TestFindID_NotFound(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.FindID(ctx, "nonexistent-id")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("FindID() should wrap core.ErrNotFound, got %v", err)
	}
}

func TestSave_Overwrites(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, &core.Document{ID: "doc1", State: core.DefaultState()}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	updated := core.DocumentState(`{"type":"doc","content":[{"type":"paragraph"}]}`)
	if err := store.Save(ctx, "doc1", updated); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	retrieved, err := store.FindID(ctx, "doc1")
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if !retrieved.State.Equal(updated) {
		t.Errorf("Save() did not overwrite: got %s, want %s", retrieved.State, updated)
	}
}

func TestSave_Idempotent(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	state := core.DocumentState(`{"type":"doc","content":[{"type":"paragraph"}]}`)
	for i := 0; i < 3; i++ {
		if err := store.Save(ctx, "doc1", state); err != nil {
			t.Fatalf("Save() %d failed: %v", i, err)
		}
	}

	retrieved, err := store.FindID(ctx, "doc1")
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if !retrieved.State.Equal(state) {
		t.Errorf("Repeated saves corrupted state: got %s, want %s", retrieved.State, state)
	}
}

func TestKeysArePrefixed(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewDocumentStoreWithClient(client)
	ctx := context.Background()

	if err := store.Save(ctx, "doc1", core.DefaultState()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !s.Exists("doc:doc1") {
		t.Error("Document key should be stored under the doc: prefix")
	}
}
