package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/grammarheroes/backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Player{},
		&types.Adventure{},
		&types.PlayerKCMastery{},
		&types.AdventureKCStat{},
		&types.AdventureSummary{},
	)
}

// EnsureGameIndexes creates the indexes that carry invariants the models
// cannot express through tags. The partial unique index on active adventures
// is load-bearing: it is what makes concurrent Start calls yield one winner.
func EnsureGameIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_adventures_one_active_per_player
		ON adventures(player_id)
		WHERE state = 'in_progress';
	`).Error; err != nil {
		return fmt.Errorf("create idx_adventures_one_active_per_player: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_adventures_player_started
		ON adventures(player_id, started_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_adventures_player_started: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_adventure_summary_day
		ON adventure_summary(day_in_epoch_time DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_adventure_summary_day: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureGameIndexes(s.db); err != nil {
		s.log.Error("Game index migration failed", "error", err)
		return err
	}
	return nil
}
