package player

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

type PlayerRepo interface {
	Create(dbc dbctx.Context, p *types.Player) error
	GetByID(dbc dbctx.Context, playerID uuid.UUID) (*types.Player, error)
	GetByProviderUID(dbc dbctx.Context, providerUID string) (*types.Player, error)
	GetByDisplayName(dbc dbctx.Context, name string) (*types.Player, error)
	ClaimSession(dbc dbctx.Context, playerID uuid.UUID, issueTime int64) (bool, error)
	UpdateFields(dbc dbctx.Context, playerID uuid.UUID, updates map[string]any) error
	IncrementAdventuresCleared(dbc dbctx.Context, playerID uuid.UUID) error
}

type playerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlayerRepo(db *gorm.DB, baseLog *logger.Logger) PlayerRepo {
	return &playerRepo{
		db:  db,
		log: baseLog.With("repo", "PlayerRepo"),
	}
}

// Create inserts the player, ignoring a concurrent insert for the same
// provider uid. Callers re-read by provider uid afterwards.
func (r *playerRepo) Create(dbc dbctx.Context, p *types.Player) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "provider_uid"}}, DoNothing: true}).
		Create(p).Error
}

func (r *playerRepo) GetByID(dbc dbctx.Context, playerID uuid.UUID) (*types.Player, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if playerID == uuid.Nil {
		return nil, nil
	}
	var row types.Player
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", playerID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *playerRepo) GetByProviderUID(dbc dbctx.Context, providerUID string) (*types.Player, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if providerUID == "" {
		return nil, nil
	}
	var row types.Player
	if err := t.WithContext(dbc.Ctx).
		Where("provider_uid = ?", providerUID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *playerRepo) GetByDisplayName(dbc dbctx.Context, name string) (*types.Player, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if name == "" {
		return nil, nil
	}
	var row types.Player
	if err := t.WithContext(dbc.Ctx).
		Where("display_name = ?", name).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// ClaimSession records issueTime as the player's session authority iff it is
// strictly newer than the recorded one (or none is recorded). The guard lives
// in the WHERE clause so two devices racing to authenticate cannot both win.
func (r *playerRepo) ClaimSession(dbc dbctx.Context, playerID uuid.UUID, issueTime int64) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Player{}).
		Where("id = ? AND (active_session_auth_time IS NULL OR active_session_auth_time < ?)", playerID, issueTime).
		Update("active_session_auth_time", issueTime)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *playerRepo) UpdateFields(dbc dbctx.Context, playerID uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Player{}).
		Where("id = ?", playerID).
		Updates(updates).Error
}

func (r *playerRepo) IncrementAdventuresCleared(dbc dbctx.Context, playerID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Player{}).
		Where("id = ?", playerID).
		Update("total_adventures_cleared", gorm.Expr("total_adventures_cleared + 1")).Error
}
