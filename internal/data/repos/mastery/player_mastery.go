package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

// PlayerMasteryRepo manages the lifetime (player x KC) mastery rows.
type PlayerMasteryRepo interface {
	Get(dbc dbctx.Context, playerID uuid.UUID, kcID int) (*types.PlayerKCMastery, error)
	ListForPlayer(dbc dbctx.Context, playerID uuid.UUID) ([]*types.PlayerKCMastery, error)
	Create(dbc dbctx.Context, row *types.PlayerKCMastery) error
	UpdateFields(dbc dbctx.Context, playerID uuid.UUID, kcID int, updates map[string]any) error
}

type playerMasteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlayerMasteryRepo(db *gorm.DB, baseLog *logger.Logger) PlayerMasteryRepo {
	return &playerMasteryRepo{
		db:  db,
		log: baseLog.With("repo", "PlayerMasteryRepo"),
	}
}

func (r *playerMasteryRepo) Get(dbc dbctx.Context, playerID uuid.UUID, kcID int) (*types.PlayerKCMastery, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.PlayerKCMastery
	if err := t.WithContext(dbc.Ctx).
		Where("player_id = ? AND kc_id = ?", playerID, kcID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.PlayerID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *playerMasteryRepo) ListForPlayer(dbc dbctx.Context, playerID uuid.UUID) ([]*types.PlayerKCMastery, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.PlayerKCMastery
	if err := t.WithContext(dbc.Ctx).
		Where("player_id = ?", playerID).
		Order("kc_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *playerMasteryRepo) Create(dbc dbctx.Context, row *types.PlayerKCMastery) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *playerMasteryRepo) UpdateFields(dbc dbctx.Context, playerID uuid.UUID, kcID int, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.PlayerKCMastery{}).
		Where("player_id = ? AND kc_id = ?", playerID, kcID).
		Updates(updates).Error
}
