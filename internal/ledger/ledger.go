package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prakharpks02/floww-wall/internal/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingUserID   = errors.New("user identifier is required")
	noOpLogger         = zap.NewNop()
)

const (
	opLedgerNew    = "ledger.new"
	opLedgerRecord = "ledger.record"
	opLedgerClear  = "ledger.clear"
)

// LedgerError carries a stable machine-readable code alongside the cause.
type LedgerError struct {
	code string
	err  error
}

func (e *LedgerError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *LedgerError) Unwrap() error {
	return e.err
}

func (e *LedgerError) Code() string {
	return e.code
}

func newLedgerError(operation, reason string, cause error) error {
	return &LedgerError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// ServiceConfig describes the dependencies for the reaction ledger.
type ServiceConfig struct {
	Database *gorm.DB
	UserID   string
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Ledger is the persistent overlay recording which reactions the signed-in
// user personally applied. Marks are loaded once at construction and every
// Record call writes through to the database before updating memory, so the
// ledger survives process restarts. Concurrent writers from other processes
// are not coordinated; the last writer wins.
type Ledger struct {
	db     *gorm.DB
	userID string
	clock  func() time.Time
	logger *zap.Logger

	mu    sync.RWMutex
	marks map[markKey]bool
}

// NewLedger loads the signed-in user's marks and returns a ready ledger.
func NewLedger(ctx context.Context, cfg ServiceConfig) (*Ledger, error) {
	if cfg.Database == nil {
		return nil, newLedgerError(opLedgerNew, "missing_database", errMissingDatabase)
	}
	userID := strings.TrimSpace(cfg.UserID)
	if userID == "" {
		return nil, newLedgerError(opLedgerNew, "missing_user_id", errMissingUserID)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	var rows []ReactionMark
	if err := cfg.Database.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, newLedgerError(opLedgerNew, "load_failed", err)
	}

	marks := make(map[markKey]bool, len(rows))
	for _, row := range rows {
		marks[markKey{entityID: row.EntityID, reactionType: row.ReactionType}] = row.Present
	}

	return &Ledger{
		db:     cfg.Database,
		userID: userID,
		clock:  clock,
		logger: logger,
		marks:  marks,
	}, nil
}

// UserID returns the identifier the ledger is scoped to.
func (l *Ledger) UserID() string {
	return l.userID
}

// Lookup returns the recorded toggle state for the pair and whether any
// record exists at all.
func (l *Ledger) Lookup(entityID, reactionType string) (present bool, recorded bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	present, recorded = l.marks[markKey{entityID: entityID, reactionType: strings.ToLower(reactionType)}]
	return present, recorded
}

// HasReacted reports whether the signed-in user has the given reaction on the
// target entity. The ledger entry is authoritative when one exists. Without
// an entry it falls back to a documented approximation: the user is treated
// as having reacted when the entity is their own and the server reports a
// nonzero count of that type. The approximation exists because aggregate
// counts cannot identify individual reactors.
func (l *Ledger) HasReacted(target entity.Entity, reactionType string) bool {
	normalizedType := strings.ToLower(strings.TrimSpace(reactionType))
	if present, recorded := l.Lookup(target.CanonicalID, normalizedType); recorded {
		return present
	}
	if target.Author.ID != l.userID {
		return false
	}
	detail, ok := target.Reactions[normalizedType]
	return ok && detail.Count > 0
}

// Record stores the user's latest toggle decision for the pair, writing the
// database row before the in-memory mark.
func (l *Ledger) Record(ctx context.Context, entityID, reactionType string, present bool) error {
	trimmedEntityID := strings.TrimSpace(entityID)
	normalizedType := strings.ToLower(strings.TrimSpace(reactionType))
	if trimmedEntityID == "" || normalizedType == "" {
		return newLedgerError(opLedgerRecord, "invalid_key", fmt.Errorf("entity %q reaction %q", entityID, reactionType))
	}

	row := ReactionMark{
		UserID:           l.userID,
		EntityID:         trimmedEntityID,
		ReactionType:     normalizedType,
		Present:          present,
		UpdatedAtSeconds: l.clock().Unix(),
	}
	if err := l.db.WithContext(ctx).Save(&row).Error; err != nil {
		l.logError(opLedgerRecord, "save_failed", err,
			zap.String("entity_id", trimmedEntityID),
			zap.String("reaction_type", normalizedType))
		return newLedgerError(opLedgerRecord, "save_failed", err)
	}

	l.mu.Lock()
	l.marks[markKey{entityID: trimmedEntityID, reactionType: normalizedType}] = present
	l.mu.Unlock()
	return nil
}

// Rename moves all marks from a temporary local id to the server-confirmed id
// once a created entity is reconciled.
func (l *Ledger) Rename(ctx context.Context, previousEntityID, confirmedEntityID string) error {
	previous := strings.TrimSpace(previousEntityID)
	confirmed := strings.TrimSpace(confirmedEntityID)
	if previous == "" || confirmed == "" || previous == confirmed {
		return nil
	}

	l.mu.Lock()
	moved := make(map[markKey]bool)
	for key, present := range l.marks {
		if key.entityID != previous {
			continue
		}
		moved[markKey{entityID: confirmed, reactionType: key.reactionType}] = present
		delete(l.marks, key)
	}
	for key, present := range moved {
		l.marks[key] = present
	}
	l.mu.Unlock()

	if len(moved) == 0 {
		return nil
	}
	if err := l.db.WithContext(ctx).
		Model(&ReactionMark{}).
		Where("user_id = ? AND entity_id = ?", l.userID, previous).
		Update("entity_id", confirmed).Error; err != nil {
		l.logError(opLedgerRecord, "rename_failed", err, zap.String("entity_id", previous))
		return newLedgerError(opLedgerRecord, "rename_failed", err)
	}
	return nil
}

// Clear wipes every mark for the signed-in user. Called on logout or when a
// different user signs in.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := l.db.WithContext(ctx).
		Where("user_id = ?", l.userID).
		Delete(&ReactionMark{}).Error; err != nil {
		l.logError(opLedgerClear, "delete_failed", err)
		return newLedgerError(opLedgerClear, "delete_failed", err)
	}

	l.mu.Lock()
	l.marks = make(map[markKey]bool)
	l.mu.Unlock()
	return nil
}

func (l *Ledger) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.String("user_id", l.userID),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	l.logger.Error("reaction ledger error", attrs...)
}
