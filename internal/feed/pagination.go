package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/prakharpks02/floww-wall/internal/entity"
	"go.uber.org/zap"
)

const defaultPageSize = 20

const opLoadPage = "feed.load_page"

var (
	errMissingStore  = errors.New("feed store is required")
	errMissingRemote = errors.New("remote api is required")
)

// PageState mirrors the pagination flags the presentation layer reads.
type PageState struct {
	NextCursor    string
	HasMore       bool
	IsLoadingMore bool
}

// PaginatorConfig describes the dependencies for one feed view's paginator.
type PaginatorConfig struct {
	Store      *Store
	Remote     RemoteAPI
	ActingUser entity.Author
	PageSize   int
	Logger     *zap.Logger
}

// Paginator maintains the cursor window over one feed view. Independent feed
// views (home wall vs. a user's own posts) each get their own paginator and
// store and never share state.
type Paginator struct {
	store      *Store
	remote     RemoteAPI
	actingUser entity.Author
	pageSize   int
	logger     *zap.Logger

	mu         sync.Mutex
	nextCursor string
	hasMore    bool
	loading    bool
}

// NewPaginator constructs a paginator for one feed view.
func NewPaginator(cfg PaginatorConfig) (*Paginator, error) {
	if cfg.Store == nil {
		return nil, newEngineError(opLoadPage, "missing_store", errMissingStore)
	}
	if cfg.Remote == nil {
		return nil, newEngineError(opLoadPage, "missing_remote", errMissingRemote)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Paginator{
		store:      cfg.Store,
		remote:     cfg.Remote,
		actingUser: cfg.ActingUser,
		pageSize:   pageSize,
		logger:     logger,
	}, nil
}

// State returns the current pagination flags.
func (p *Paginator) State() PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PageState{NextCursor: p.nextCursor, HasMore: p.hasMore, IsLoadingMore: p.loading}
}

// Refresh discards the cursor and reloads the first page. The mutation
// manager calls this after reaction toggles because the server is the sole
// source of truth for aggregate counts.
func (p *Paginator) Refresh(ctx context.Context) error {
	return p.LoadPage(ctx, true)
}

// LoadPage fetches one page of the feed. With reset true the cursor is
// discarded and the store's contents are replaced by the first page; with
// reset false the stored cursor is used and results are appended, minus any
// entity already present. A call while another load is in flight for this
// view is a no-op, as is loading past an exhausted feed.
func (p *Paginator) LoadPage(ctx context.Context, reset bool) error {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return nil
	}
	if !reset && !p.hasMore {
		p.mu.Unlock()
		return nil
	}
	cursor := p.nextCursor
	if reset {
		cursor = ""
	}
	p.loading = true
	p.mu.Unlock()

	page, err := p.remote.ListPosts(ctx, cursor, p.pageSize)
	if err != nil {
		p.mu.Lock()
		p.loading = false
		p.mu.Unlock()
		p.logger.Error("feed page load failed",
			zap.String("operation", opLoadPage),
			zap.String("reason", "remote_list_failed"),
			zap.Bool("reset", reset),
			zap.Error(err))
		return newEngineError(opLoadPage, "remote_list_failed", err)
	}

	normalized := make([]entity.Entity, 0, len(page.Entities))
	for _, raw := range page.Entities {
		normalized = append(normalized, entity.Normalize(raw, p.actingUser))
	}

	if reset {
		p.store.Replace(normalized)
	} else {
		p.store.Append(normalized)
	}

	p.mu.Lock()
	p.nextCursor = page.NextCursor
	// An empty page with a cursor means exhausted, not "more available";
	// treating it as more would loop fetching forever.
	p.hasMore = page.NextCursor != "" && len(page.Entities) > 0
	p.loading = false
	p.mu.Unlock()

	p.logger.Debug("feed page loaded",
		zap.String("operation", opLoadPage),
		zap.Bool("reset", reset),
		zap.Int("entities", len(normalized)),
		zap.Bool("has_more", page.NextCursor != "" && len(page.Entities) > 0))
	return nil
}
