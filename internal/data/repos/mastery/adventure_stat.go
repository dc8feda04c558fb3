package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

// AdventureStatRepo manages the per-run (adventure x KC) mastery rows.
type AdventureStatRepo interface {
	Get(dbc dbctx.Context, adventureID uuid.UUID, kcID int) (*types.AdventureKCStat, error)
	ListForAdventure(dbc dbctx.Context, adventureID uuid.UUID) ([]*types.AdventureKCStat, error)
	Create(dbc dbctx.Context, row *types.AdventureKCStat) error
	UpdateFields(dbc dbctx.Context, adventureID uuid.UUID, kcID int, updates map[string]any) error
}

type adventureStatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdventureStatRepo(db *gorm.DB, baseLog *logger.Logger) AdventureStatRepo {
	return &adventureStatRepo{
		db:  db,
		log: baseLog.With("repo", "AdventureStatRepo"),
	}
}

func (r *adventureStatRepo) Get(dbc dbctx.Context, adventureID uuid.UUID, kcID int) (*types.AdventureKCStat, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.AdventureKCStat
	if err := t.WithContext(dbc.Ctx).
		Where("adventure_id = ? AND kc_id = ?", adventureID, kcID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.AdventureID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *adventureStatRepo) ListForAdventure(dbc dbctx.Context, adventureID uuid.UUID) ([]*types.AdventureKCStat, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.AdventureKCStat
	if err := t.WithContext(dbc.Ctx).
		Where("adventure_id = ?", adventureID).
		Order("kc_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *adventureStatRepo) Create(dbc dbctx.Context, row *types.AdventureKCStat) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *adventureStatRepo) UpdateFields(dbc dbctx.Context, adventureID uuid.UUID, kcID int, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.AdventureKCStat{}).
		Where("adventure_id = ? AND kc_id = ?", adventureID, kcID).
		Updates(updates).Error
}
