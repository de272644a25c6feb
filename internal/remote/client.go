package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prakharpks02/floww-wall/internal/entity"
	"github.com/prakharpks02/floww-wall/internal/feed"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

var (
	// ErrMissingBaseURL indicates that no backend base URL was configured.
	ErrMissingBaseURL = errors.New("remote: base url required")
	// ErrInvalidBaseURL indicates that the configured base URL does not parse.
	ErrInvalidBaseURL = errors.New("remote: invalid base url")
)

// StatusError reports a non-success HTTP response from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: unexpected status %d: %s", e.StatusCode, e.Body)
}

// ClientConfig describes how to reach the wall backend.
type ClientConfig struct {
	BaseURL      string
	SessionToken string
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Client implements feed.RemoteAPI over the backend's REST endpoints.
type Client struct {
	baseURL      *url.URL
	sessionToken string
	httpClient   *http.Client
	logger       *zap.Logger
}

var _ feed.RemoteAPI = (*Client)(nil)

// NewClient constructs a backend client.
func NewClient(cfg ClientConfig) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if trimmed == "" {
		return nil, ErrMissingBaseURL
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:      parsed,
		sessionToken: strings.TrimSpace(cfg.SessionToken),
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// CreatePost submits a new post draft.
func (c *Client) CreatePost(ctx context.Context, draft entity.RawEntity) (entity.RawEntity, error) {
	var created entity.RawEntity
	err := c.doJSON(ctx, http.MethodPost, "/api/posts", draft, &created)
	return created, err
}

// UpdatePost submits a partial edit for an existing post.
func (c *Client) UpdatePost(ctx context.Context, postID string, patch entity.RawEntity) (entity.RawEntity, error) {
	var updated entity.RawEntity
	err := c.doJSON(ctx, http.MethodPatch, "/api/posts/"+url.PathEscape(postID), patch, &updated)
	return updated, err
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(postID), nil, nil)
}

// listResponse tolerates the two envelope spellings the backend has used for
// feed pages.
type listResponse struct {
	Posts      []entity.RawEntity `json:"posts"`
	Data       []entity.RawEntity `json:"data"`
	NextCursor string             `json:"next_cursor"`
	Cursor     string             `json:"cursor"`
}

// ListPosts fetches one page of the feed.
func (c *Client) ListPosts(ctx context.Context, cursor string, pageSize int) (feed.Page, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}
	path := "/api/posts"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var response listResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return feed.Page{}, err
	}

	entities := response.Posts
	if entities == nil {
		entities = response.Data
	}
	nextCursor := response.NextCursor
	if nextCursor == "" {
		nextCursor = response.Cursor
	}
	return feed.Page{Entities: entities, NextCursor: nextCursor}, nil
}

type reactionRequest struct {
	ReactionType string `json:"reaction_type"`
}

// AddReaction records the acting user's reaction on an entity.
func (c *Client) AddReaction(ctx context.Context, entityID, reactionType string) error {
	path := "/api/entities/" + url.PathEscape(entityID) + "/reactions"
	return c.doJSON(ctx, http.MethodPost, path, reactionRequest{ReactionType: reactionType}, nil)
}

// RemoveReaction withdraws the acting user's reaction from an entity.
func (c *Client) RemoveReaction(ctx context.Context, entityID, reactionType string) error {
	path := "/api/entities/" + url.PathEscape(entityID) + "/reactions/" + url.PathEscape(reactionType)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// AddComment submits a comment draft beneath a post.
func (c *Client) AddComment(ctx context.Context, postID string, draft entity.RawEntity) (entity.RawEntity, error) {
	var created entity.RawEntity
	path := "/api/posts/" + url.PathEscape(postID) + "/comments"
	err := c.doJSON(ctx, http.MethodPost, path, draft, &created)
	return created, err
}

// EditComment submits a partial edit for a comment.
func (c *Client) EditComment(ctx context.Context, postID, commentID string, patch entity.RawEntity) (entity.RawEntity, error) {
	var updated entity.RawEntity
	path := "/api/posts/" + url.PathEscape(postID) + "/comments/" + url.PathEscape(commentID)
	err := c.doJSON(ctx, http.MethodPatch, path, patch, &updated)
	return updated, err
}

// DeleteComment removes a comment from a post.
func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) error {
	path := "/api/posts/" + url.PathEscape(postID) + "/comments/" + url.PathEscape(commentID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// AddReply submits a reply draft beneath a comment.
func (c *Client) AddReply(ctx context.Context, postID, commentID string, draft entity.RawEntity) (entity.RawEntity, error) {
	var created entity.RawEntity
	path := "/api/posts/" + url.PathEscape(postID) + "/comments/" + url.PathEscape(commentID) + "/replies"
	err := c.doJSON(ctx, http.MethodPost, path, draft, &created)
	return created, err
}

// DeleteReply removes a reply from a comment.
func (c *Client) DeleteReply(ctx context.Context, postID, commentID, replyID string) error {
	path := "/api/posts/" + url.PathEscape(postID) + "/comments/" + url.PathEscape(commentID) + "/replies/" + url.PathEscape(replyID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.sessionToken != "" {
		request.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("remote: read response: %w", err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: response.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}
