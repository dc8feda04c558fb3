package summary

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

// SummaryRepo writes and reads the immutable per-adventure history records.
// There is intentionally no update method.
type SummaryRepo interface {
	Create(dbc dbctx.Context, s *types.AdventureSummary) error
	GetByAdventureID(dbc dbctx.Context, adventureID uuid.UUID) (*types.AdventureSummary, error)
	ListForPlayer(dbc dbctx.Context, playerID uuid.UUID) ([]*types.AdventureSummary, error)
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	return &summaryRepo{
		db:  db,
		log: baseLog.With("repo", "SummaryRepo"),
	}
}

func (r *summaryRepo) Create(dbc dbctx.Context, s *types.AdventureSummary) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(s).Error
}

func (r *summaryRepo) GetByAdventureID(dbc dbctx.Context, adventureID uuid.UUID) (*types.AdventureSummary, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if adventureID == uuid.Nil {
		return nil, nil
	}
	var row types.AdventureSummary
	if err := t.WithContext(dbc.Ctx).
		Where("adventure_id = ?", adventureID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.AdventureID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// ListForPlayer returns the player's finished runs, newest first.
func (r *summaryRepo) ListForPlayer(dbc dbctx.Context, playerID uuid.UUID) ([]*types.AdventureSummary, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.AdventureSummary
	if err := t.WithContext(dbc.Ctx).
		Joins("JOIN adventures ON adventures.id = adventure_summary.adventure_id").
		Where("adventures.player_id = ?", playerID).
		Order("adventure_summary.day_in_epoch_time DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
