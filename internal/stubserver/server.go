// Package stubserver hosts a development backend for the wall client. It
// keeps an in-memory wall and deliberately rotates among the wire shapes the
// production backend has emitted over time, so the normalization engine can
// be exercised end to end without real infrastructure.
package stubserver

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prakharpks02/floww-wall/internal/identity"
	"go.uber.org/zap"
)

const defaultPageSize = 20

// Dependencies configures the stub backend.
type Dependencies struct {
	Logger *zap.Logger
	Clock  func() time.Time
}

type wallEntity struct {
	id        string
	authorID  string
	author    string
	content   string
	tags      []string
	mediaURLs []string
	createdAt time.Time
	reactions map[string]map[string]struct{}
	children  []*wallEntity
}

type wall struct {
	mu       sync.Mutex
	posts    []*wallEntity
	shapeSeq int
	logger   *zap.Logger
	clock    func() time.Time
}

// NewHTTPHandler builds the stub backend router.
func NewHTTPHandler(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	state := &wall{logger: logger, clock: clock}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/api/posts", state.handleListPosts)
	router.POST("/api/posts", state.handleCreatePost)
	router.PATCH("/api/posts/:post_id", state.handleUpdatePost)
	router.DELETE("/api/posts/:post_id", state.handleDeletePost)

	router.POST("/api/entities/:entity_id/reactions", state.handleAddReaction)
	router.DELETE("/api/entities/:entity_id/reactions/:reaction_type", state.handleRemoveReaction)

	router.POST("/api/posts/:post_id/comments", state.handleAddComment)
	router.PATCH("/api/posts/:post_id/comments/:comment_id", state.handleEditComment)
	router.DELETE("/api/posts/:post_id/comments/:comment_id", state.handleDeleteComment)
	router.POST("/api/posts/:post_id/comments/:comment_id/replies", state.handleAddReply)
	router.DELETE("/api/posts/:post_id/comments/:comment_id/replies/:reply_id", state.handleDeleteReply)

	return router
}

func actingUserID(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token != "" {
		if profile, err := identity.FromSessionToken(token); err == nil {
			return profile.ID
		}
	}
	return "demo-user"
}

type draftPayload struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Media   []struct {
		Link string `json:"link"`
		URL  string `json:"url"`
	} `json:"media"`
}

func (p draftPayload) mediaURLs() []string {
	var out []string
	for _, item := range p.Media {
		if item.URL != "" {
			out = append(out, item.URL)
		} else if item.Link != "" {
			out = append(out, item.Link)
		}
	}
	return out
}

func (w *wall) newEntity(c *gin.Context, payload draftPayload) *wallEntity {
	return &wallEntity{
		id:        uuid.NewString(),
		authorID:  actingUserID(c),
		author:    "Stub " + actingUserID(c),
		content:   payload.Content,
		tags:      payload.Tags,
		mediaURLs: payload.mediaURLs(),
		createdAt: w.clock().UTC(),
		reactions: make(map[string]map[string]struct{}),
	}
}

func (w *wall) handleCreatePost(c *gin.Context) {
	var payload draftPayload
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	w.mu.Lock()
	post := w.newEntity(c, payload)
	w.posts = append([]*wallEntity{post}, w.posts...)
	shape := w.nextShapeLocked()
	rendered := renderEntity(post, shape)
	w.mu.Unlock()

	w.logger.Debug("stub post created", zap.String("post_id", post.id), zap.Int("shape", shape))
	c.JSON(http.StatusCreated, rendered)
}

func (w *wall) handleListPosts(c *gin.Context) {
	pageSize := defaultPageSize
	if raw := c.Query("page_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			pageSize = parsed
		}
	}
	offset := decodeCursor(c.Query("cursor"))

	w.mu.Lock()
	defer w.mu.Unlock()

	if offset > len(w.posts) {
		offset = len(w.posts)
	}
	end := offset + pageSize
	if end > len(w.posts) {
		end = len(w.posts)
	}

	shape := w.nextShapeLocked()
	rendered := make([]gin.H, 0, end-offset)
	for _, post := range w.posts[offset:end] {
		rendered = append(rendered, renderEntity(post, shape))
	}

	response := gin.H{"posts": rendered}
	if end < len(w.posts) {
		response["next_cursor"] = encodeCursor(end)
	}
	c.JSON(http.StatusOK, response)
}

func (w *wall) handleUpdatePost(c *gin.Context) {
	var payload draftPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	post := w.findPostLocked(c.Param("post_id"))
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if strings.TrimSpace(payload.Content) != "" {
		post.content = payload.Content
	}
	if payload.Tags != nil {
		post.tags = payload.Tags
	}
	c.JSON(http.StatusOK, renderEntity(post, w.nextShapeLocked()))
}

func (w *wall) handleDeletePost(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	postID := c.Param("post_id")
	for position, post := range w.posts {
		if post.id == postID {
			w.posts = append(w.posts[:position], w.posts[position+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
}

type reactionPayload struct {
	ReactionType string `json:"reaction_type"`
}

func (w *wall) handleAddReaction(c *gin.Context) {
	var payload reactionPayload
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.ReactionType) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	reactionType := strings.ToLower(strings.TrimSpace(payload.ReactionType))

	w.mu.Lock()
	defer w.mu.Unlock()
	target := w.findEntityLocked(c.Param("entity_id"))
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if target.reactions[reactionType] == nil {
		target.reactions[reactionType] = make(map[string]struct{})
	}
	target.reactions[reactionType][actingUserID(c)] = struct{}{}
	c.Status(http.StatusNoContent)
}

func (w *wall) handleRemoveReaction(c *gin.Context) {
	reactionType := strings.ToLower(strings.TrimSpace(c.Param("reaction_type")))

	w.mu.Lock()
	defer w.mu.Unlock()
	target := w.findEntityLocked(c.Param("entity_id"))
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if users := target.reactions[reactionType]; users != nil {
		delete(users, actingUserID(c))
		if len(users) == 0 {
			delete(target.reactions, reactionType)
		}
	}
	c.Status(http.StatusNoContent)
}

func (w *wall) handleAddComment(c *gin.Context) {
	var payload draftPayload
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	post := w.findPostLocked(c.Param("post_id"))
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	comment := w.newEntity(c, payload)
	post.children = append(post.children, comment)
	c.JSON(http.StatusCreated, renderEntity(comment, w.nextShapeLocked()))
}

func (w *wall) handleEditComment(c *gin.Context) {
	var payload draftPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	comment := w.findChildLocked(c.Param("post_id"), c.Param("comment_id"))
	if comment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if strings.TrimSpace(payload.Content) != "" {
		comment.content = payload.Content
	}
	c.JSON(http.StatusOK, renderEntity(comment, w.nextShapeLocked()))
}

func (w *wall) handleDeleteComment(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	post := w.findPostLocked(c.Param("post_id"))
	if post == nil || !removeChildByID(&post.children, c.Param("comment_id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (w *wall) handleAddReply(c *gin.Context) {
	var payload draftPayload
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	comment := w.findChildLocked(c.Param("post_id"), c.Param("comment_id"))
	if comment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	reply := w.newEntity(c, payload)
	comment.children = append(comment.children, reply)
	c.JSON(http.StatusCreated, renderEntity(reply, w.nextShapeLocked()))
}

func (w *wall) handleDeleteReply(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	comment := w.findChildLocked(c.Param("post_id"), c.Param("comment_id"))
	if comment == nil || !removeChildByID(&comment.children, c.Param("reply_id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (w *wall) findPostLocked(postID string) *wallEntity {
	for _, post := range w.posts {
		if post.id == postID {
			return post
		}
	}
	return nil
}

func (w *wall) findChildLocked(postID, childID string) *wallEntity {
	post := w.findPostLocked(postID)
	if post == nil {
		return nil
	}
	return findDescendant(post.children, childID)
}

func (w *wall) findEntityLocked(entityID string) *wallEntity {
	if post := w.findPostLocked(entityID); post != nil {
		return post
	}
	for _, post := range w.posts {
		if found := findDescendant(post.children, entityID); found != nil {
			return found
		}
	}
	return nil
}

func findDescendant(children []*wallEntity, entityID string) *wallEntity {
	for _, child := range children {
		if child.id == entityID {
			return child
		}
		if found := findDescendant(child.children, entityID); found != nil {
			return found
		}
	}
	return nil
}

func removeChildByID(children *[]*wallEntity, entityID string) bool {
	for position, child := range *children {
		if child.id == entityID {
			*children = append((*children)[:position], (*children)[position+1:]...)
			return true
		}
	}
	return false
}

func (w *wall) nextShapeLocked() int {
	shape := w.shapeSeq % 3
	w.shapeSeq++
	return shape
}

// renderEntity emits one of the three historical wire shapes:
// shape 0 nests the author under created_by and aggregates reactions into
// reaction_counts with flat unlabeled media; shape 1 uses the user field,
// comment_id, and the legacy per-user reaction array; shape 2 uses author,
// a canonical reaction map, and pre-split media arrays.
func renderEntity(target *wallEntity, shape int) gin.H {
	out := gin.H{
		"content":    target.content,
		"tags":       target.tags,
		"created_at": target.createdAt.Format(time.RFC3339Nano),
	}

	switch shape {
	case 1:
		out["comment_id"] = target.id
		out["user"] = gin.H{
			"id":         target.authorID,
			"name":       target.author,
			"avatar_url": fmt.Sprintf("https://stub.local/avatars/%s.png", target.authorID),
		}
		var tuples []gin.H
		for reactionType, users := range target.reactions {
			for userID := range users {
				tuples = append(tuples, gin.H{"reaction_type": reactionType, "user_id": userID})
			}
		}
		out["reactions"] = tuples
		out["media"] = renderFlatMedia(target.mediaURLs)
	case 2:
		out["id"] = target.id
		out["author"] = gin.H{
			"id":           target.authorID,
			"display_name": target.author,
		}
		canonical := gin.H{}
		for reactionType, users := range target.reactions {
			ids := make([]string, 0, len(users))
			for userID := range users {
				ids = append(ids, userID)
			}
			canonical[reactionType] = gin.H{"count": len(users), "user_ids": ids}
		}
		out["reactions"] = canonical
		out["links"] = renderFlatMedia(target.mediaURLs)
	default:
		out["id"] = target.id
		out["created_by"] = gin.H{
			"user_id":         target.authorID,
			"full_name":       target.author,
			"profile_picture": fmt.Sprintf("https://stub.local/avatars/%s.png", target.authorID),
		}
		counts := gin.H{}
		for reactionType, users := range target.reactions {
			counts[reactionType] = len(users)
		}
		out["reaction_counts"] = counts
		out["media"] = renderFlatMedia(target.mediaURLs)
	}

	if len(target.children) > 0 {
		comments := make([]gin.H, 0, len(target.children))
		for _, child := range target.children {
			comments = append(comments, renderEntity(child, shape))
		}
		out["comments"] = comments
	}
	return out
}

func renderFlatMedia(urls []string) []gin.H {
	out := make([]gin.H, 0, len(urls))
	for _, mediaURL := range urls {
		out = append(out, gin.H{"link": mediaURL})
	}
	return out
}

func encodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte("offset:" + strconv.Itoa(offset)))
}

func decodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	value := strings.TrimPrefix(string(decoded), "offset:")
	offset, err := strconv.Atoi(value)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}
