package adventure

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

type AdventureRepo interface {
	Create(dbc dbctx.Context, adv *types.Adventure) error
	GetByID(dbc dbctx.Context, adventureID uuid.UUID) (*types.Adventure, error)
	GetActiveForPlayer(dbc dbctx.Context, playerID uuid.UUID) (*types.Adventure, error)
	AbandonActiveForPlayer(dbc dbctx.Context, playerID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, adventureID uuid.UUID, updates map[string]any) error
	FinishIfInProgress(dbc dbctx.Context, adventureID uuid.UUID, updates map[string]any) (int64, error)
	IncrementSubmissionTally(dbc dbctx.Context, adventureID uuid.UUID, correct bool) error
}

type adventureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdventureRepo(db *gorm.DB, baseLog *logger.Logger) AdventureRepo {
	return &adventureRepo{
		db:  db,
		log: baseLog.With("repo", "AdventureRepo"),
	}
}

// Create inserts a new run. The partial unique index on
// adventures(player_id) WHERE state = 'in_progress' makes this fail for the
// loser of a concurrent Start race; callers re-read the winner on error.
func (r *adventureRepo) Create(dbc dbctx.Context, adv *types.Adventure) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(adv).Error
}

func (r *adventureRepo) GetByID(dbc dbctx.Context, adventureID uuid.UUID) (*types.Adventure, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if adventureID == uuid.Nil {
		return nil, nil
	}
	var row types.Adventure
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", adventureID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *adventureRepo) GetActiveForPlayer(dbc dbctx.Context, playerID uuid.UUID) (*types.Adventure, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if playerID == uuid.Nil {
		return nil, nil
	}
	var row types.Adventure
	if err := t.WithContext(dbc.Ctx).
		Where("player_id = ? AND state = ?", playerID, types.AdventureInProgress).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// AbandonActiveForPlayer force-fails whatever run is active. Deterministic
// outcome for Start(force_new): abandoned runs count as failed.
func (r *adventureRepo) AbandonActiveForPlayer(dbc dbctx.Context, playerID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Adventure{}).
		Where("player_id = ? AND state = ?", playerID, types.AdventureInProgress).
		Updates(map[string]any{
			"state":       types.AdventureFailed,
			"finished_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *adventureRepo) UpdateFields(dbc dbctx.Context, adventureID uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Adventure{}).
		Where("id = ?", adventureID).
		Updates(updates).Error
}

// FinishIfInProgress applies the terminal updates only when the run is still
// active. Zero rows affected means a second Finish raced or already landed.
func (r *adventureRepo) FinishIfInProgress(dbc dbctx.Context, adventureID uuid.UUID, updates map[string]any) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Adventure{}).
		Where("id = ? AND state = ?", adventureID, types.AdventureInProgress).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *adventureRepo) IncrementSubmissionTally(dbc dbctx.Context, adventureID uuid.UUID, correct bool) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	column := "incorrect_submissions"
	if correct {
		column = "correct_submissions"
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Adventure{}).
		Where("id = ?", adventureID).
		Update(column, gorm.Expr(column+" + 1")).Error
}
