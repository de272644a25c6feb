package feed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prakharpks02/floww-wall/internal/entity"
)

func rawPost(id, content string) entity.RawEntity {
	return entity.RawEntity{ID: id, Content: content}
}

func TestLoadPageResetReplacesStore(t *testing.T) {
	store := NewStore()
	store.Replace([]entity.Entity{makeEntity("stale", "old")})

	remote := &fakeRemote{
		listPosts: func(ctx context.Context, cursor string, pageSize int) (Page, error) {
			if cursor != "" {
				t.Fatalf("expected empty cursor on reset, got %q", cursor)
			}
			return Page{
				Entities:   []entity.RawEntity{rawPost("a", "a"), rawPost("b", "b")},
				NextCursor: "cursor-1",
			}, nil
		},
	}
	paginator := mustPaginator(t, store, remote)

	if err := paginator.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	ids := storeIDs(store)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected store contents: %v", ids)
	}
	state := paginator.State()
	if !state.HasMore || state.NextCursor != "cursor-1" {
		t.Fatalf("unexpected state: %#v", state)
	}
}

func TestLoadPageAppendDeduplicatesOverlap(t *testing.T) {
	store := NewStore()
	pages := []Page{
		{Entities: []entity.RawEntity{rawPost("a", "a"), rawPost("b", "b")}, NextCursor: "X"},
		{Entities: []entity.RawEntity{rawPost("b", "b again"), rawPost("c", "c")}, NextCursor: ""},
	}
	call := 0
	remote := &fakeRemote{
		listPosts: func(ctx context.Context, cursor string, pageSize int) (Page, error) {
			page := pages[call]
			if call == 1 && cursor != "X" {
				t.Fatalf("expected stored cursor X, got %q", cursor)
			}
			call++
			return page, nil
		},
	}
	paginator := mustPaginator(t, store, remote)

	if err := paginator.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	if err := paginator.LoadPage(context.Background(), false); err != nil {
		t.Fatalf("second load failed: %v", err)
	}

	ids := storeIDs(store)
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("expected exactly one b, got %v", ids)
	}
	if paginator.State().HasMore {
		t.Fatalf("expected exhausted feed")
	}
}

func TestLoadPageEmptyPageWithCursorTerminates(t *testing.T) {
	store := NewStore()
	calls := 0
	remote := &fakeRemote{
		listPosts: func(ctx context.Context, cursor string, pageSize int) (Page, error) {
			calls++
			if calls == 1 {
				return Page{Entities: []entity.RawEntity{rawPost("a", "a")}, NextCursor: "X"}, nil
			}
			return Page{Entities: nil, NextCursor: "Y"}, nil
		},
	}
	paginator := mustPaginator(t, store, remote)

	if err := paginator.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	if err := paginator.LoadPage(context.Background(), false); err != nil {
		t.Fatalf("second load failed: %v", err)
	}

	if paginator.State().HasMore {
		t.Fatalf("expected has_more false after empty page with cursor")
	}

	// A further non-reset load must not fetch again.
	if err := paginator.LoadPage(context.Background(), false); err != nil {
		t.Fatalf("third load failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected no fetch past exhaustion, got %d calls", calls)
	}
}

func TestLoadPageConcurrentCallIsNoOp(t *testing.T) {
	store := NewStore()
	release := make(chan struct{})
	started := make(chan struct{})
	calls := 0
	var mu sync.Mutex
	remote := &fakeRemote{
		listPosts: func(ctx context.Context, cursor string, pageSize int) (Page, error) {
			mu.Lock()
			calls++
			first := calls == 1
			mu.Unlock()
			if first {
				close(started)
				<-release
			}
			return Page{Entities: []entity.RawEntity{rawPost("a", "a")}}, nil
		},
	}
	paginator := mustPaginator(t, store, remote)

	done := make(chan error, 1)
	go func() {
		done <- paginator.LoadPage(context.Background(), true)
	}()
	<-started

	// This call observes the in-flight load and returns immediately.
	if err := paginator.LoadPage(context.Background(), true); err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	mu.Lock()
	if calls != 1 {
		mu.Unlock()
		t.Fatalf("expected concurrent load to be a no-op, got %d calls", calls)
	}
	mu.Unlock()

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first load failed: %v", err)
	}
}

func TestLoadPageRemoteFailureLeavesStateUsable(t *testing.T) {
	store := NewStore()
	failing := errors.New("backend down")
	remote := &fakeRemote{
		listPosts: func(ctx context.Context, cursor string, pageSize int) (Page, error) {
			return Page{}, failing
		},
	}
	paginator := mustPaginator(t, store, remote)

	err := paginator.LoadPage(context.Background(), true)
	if err == nil {
		t.Fatalf("expected error")
	}
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected EngineError, got %T", err)
	}
	if paginator.State().IsLoadingMore {
		t.Fatalf("expected loading flag cleared after failure")
	}
}

func mustPaginator(t *testing.T, store *Store, remote RemoteAPI) *Paginator {
	t.Helper()
	paginator, err := NewPaginator(PaginatorConfig{Store: store, Remote: remote})
	if err != nil {
		t.Fatalf("failed to build paginator: %v", err)
	}
	return paginator
}
