package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/prakharpks02/floww-wall/internal/entity"
	"gorm.io/gorm"
)

var testDatabaseSeq int

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	testDatabaseSeq++
	dsn := fmt.Sprintf("file:ledger-test-%d?mode=memory&cache=shared", testDatabaseSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&ReactionMark{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestLedger(t *testing.T, db *gorm.DB, userID string) *Ledger {
	t.Helper()
	reactionLedger, err := NewLedger(context.Background(), ServiceConfig{
		Database: db,
		UserID:   userID,
		Clock:    func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("failed to build ledger: %v", err)
	}
	return reactionLedger
}

func TestNewLedgerValidatesConfig(t *testing.T) {
	if _, err := NewLedger(context.Background(), ServiceConfig{UserID: "u1"}); err == nil {
		t.Fatalf("expected error for missing database")
	}
	if _, err := NewLedger(context.Background(), ServiceConfig{Database: openTestDatabase(t)}); err == nil {
		t.Fatalf("expected error for missing user id")
	}
}

func TestRecordAndLookup(t *testing.T) {
	db := openTestDatabase(t)
	reactionLedger := newTestLedger(t, db, "user-1")

	if err := reactionLedger.Record(context.Background(), "post-1", "Like", true); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	present, recorded := reactionLedger.Lookup("post-1", "like")
	if !recorded || !present {
		t.Fatalf("expected recorded true mark, got present=%v recorded=%v", present, recorded)
	}

	if err := reactionLedger.Record(context.Background(), "post-1", "like", false); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	present, recorded = reactionLedger.Lookup("post-1", "like")
	if !recorded || present {
		t.Fatalf("expected recorded false mark, got present=%v recorded=%v", present, recorded)
	}
}

func TestMarksSurviveReload(t *testing.T) {
	db := openTestDatabase(t)
	first := newTestLedger(t, db, "user-1")
	if err := first.Record(context.Background(), "post-1", "love", true); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	reloaded := newTestLedger(t, db, "user-1")
	if present, recorded := reloaded.Lookup("post-1", "love"); !recorded || !present {
		t.Fatalf("expected mark to survive reload, got present=%v recorded=%v", present, recorded)
	}
}

func TestMarksAreScopedPerUser(t *testing.T) {
	db := openTestDatabase(t)
	alice := newTestLedger(t, db, "alice")
	if err := alice.Record(context.Background(), "post-1", "like", true); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	bob := newTestLedger(t, db, "bob")
	if _, recorded := bob.Lookup("post-1", "like"); recorded {
		t.Fatalf("expected no mark for another user")
	}
}

func TestHasReactedPrefersLedgerEntry(t *testing.T) {
	db := openTestDatabase(t)
	reactionLedger := newTestLedger(t, db, "user-1")

	target := entity.Entity{
		CanonicalID: "post-1",
		Author:      entity.Author{ID: "user-1"},
		Reactions:   entity.ReactionMap{"like": {Count: 4}},
	}

	// The heuristic would claim a reaction here; an explicit false entry wins.
	if err := reactionLedger.Record(context.Background(), "post-1", "like", false); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if reactionLedger.HasReacted(target, "like") {
		t.Fatalf("expected ledger entry to override heuristic")
	}
}

func TestHasReactedHeuristicFallback(t *testing.T) {
	db := openTestDatabase(t)
	reactionLedger := newTestLedger(t, db, "user-1")

	own := entity.Entity{
		CanonicalID: "post-1",
		Author:      entity.Author{ID: "user-1"},
		Reactions:   entity.ReactionMap{"like": {Count: 2}},
	}
	if !reactionLedger.HasReacted(own, "like") {
		t.Fatalf("expected heuristic to treat own reacted entity as reacted")
	}

	foreign := entity.Entity{
		CanonicalID: "post-2",
		Author:      entity.Author{ID: "someone-else"},
		Reactions:   entity.ReactionMap{"like": {Count: 2}},
	}
	if reactionLedger.HasReacted(foreign, "like") {
		t.Fatalf("expected heuristic to skip foreign entities")
	}

	ownZero := entity.Entity{
		CanonicalID: "post-3",
		Author:      entity.Author{ID: "user-1"},
	}
	if reactionLedger.HasReacted(ownZero, "like") {
		t.Fatalf("expected heuristic to require a nonzero count")
	}
}

func TestRenameMovesMarks(t *testing.T) {
	db := openTestDatabase(t)
	reactionLedger := newTestLedger(t, db, "user-1")

	if err := reactionLedger.Record(context.Background(), "local-temp", "like", true); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := reactionLedger.Rename(context.Background(), "local-temp", "post-9"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	if _, recorded := reactionLedger.Lookup("local-temp", "like"); recorded {
		t.Fatalf("expected old key to be gone")
	}
	if present, recorded := reactionLedger.Lookup("post-9", "like"); !recorded || !present {
		t.Fatalf("expected mark under confirmed id")
	}

	reloaded := newTestLedger(t, db, "user-1")
	if present, recorded := reloaded.Lookup("post-9", "like"); !recorded || !present {
		t.Fatalf("expected rename to persist")
	}
}

func TestClearRemovesAllMarks(t *testing.T) {
	db := openTestDatabase(t)
	reactionLedger := newTestLedger(t, db, "user-1")

	if err := reactionLedger.Record(context.Background(), "post-1", "like", true); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := reactionLedger.Clear(context.Background()); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, recorded := reactionLedger.Lookup("post-1", "like"); recorded {
		t.Fatalf("expected marks to be cleared")
	}

	reloaded := newTestLedger(t, db, "user-1")
	if _, recorded := reloaded.Lookup("post-1", "like"); recorded {
		t.Fatalf("expected clear to persist")
	}
}

func TestRecordRejectsEmptyKey(t *testing.T) {
	db := openTestDatabase(t)
	reactionLedger := newTestLedger(t, db, "user-1")

	if err := reactionLedger.Record(context.Background(), "", "like", true); err == nil {
		t.Fatalf("expected error for empty entity id")
	}
	if err := reactionLedger.Record(context.Background(), "post-1", " ", true); err == nil {
		t.Fatalf("expected error for empty reaction type")
	}
}
