package database

import (
	"errors"
	"time"

	"github.com/prakharpks02/floww-wall/internal/ledger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationLowercaseReactionTypes = "2026-06-18_lowercase_reaction_types"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationLowercaseReactionTypes, apply: lowercaseReactionTypes},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// lowercaseReactionTypes repairs marks written before reaction type names
// were normalized to lower case on record.
func lowercaseReactionTypes(db *gorm.DB) error {
	return db.Model(&ledger.ReactionMark{}).
		Where("reaction_type <> lower(reaction_type)").
		Update("reaction_type", gorm.Expr("lower(reaction_type)")).Error
}
