package ledger

// ReactionMark persists one (user, entity, reaction type) toggle decision.
// The row's Present flag is the user's most recent local toggle, kept because
// the backend does not reliably report per-user reaction state on read.
type ReactionMark struct {
	UserID           string `gorm:"column:user_id;primaryKey;size:190;not null"`
	EntityID         string `gorm:"column:entity_id;primaryKey;size:190;not null"`
	ReactionType     string `gorm:"column:reaction_type;primaryKey;size:190;not null"`
	Present          bool   `gorm:"column:present;not null;default:false"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (ReactionMark) TableName() string {
	return "reaction_marks"
}

type markKey struct {
	entityID     string
	reactionType string
}
