package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/grammarheroes/backend/internal/data/repos/adventure"
	"github.com/grammarheroes/backend/internal/data/repos/mastery"
	"github.com/grammarheroes/backend/internal/data/repos/player"
	"github.com/grammarheroes/backend/internal/data/repos/summary"
	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/apierr"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

// ProfilePatch is a sparse update of the player's cosmetic and progression
// fields. Identity, counters and session authority are not patchable here.
type ProfilePatch struct {
	ProfilePicture        *string  `json:"profile_picture"`
	CosmeticEquipped      *string  `json:"cosmetic_equipped"`
	CosmeticUnlocked      []string `json:"cosmetic_unlocked"`
	HeroPassLevel         *int     `json:"hero_pass_level"`
	HeroPassExp           *int     `json:"hero_pass_exp"`
	HeroPassTiersUnlocked []int    `json:"hero_pass_tiers_unlocked"`
	AchievementsUnlocked  []string `json:"achievements_unlocked"`
	PowerpediaUnlocked    []string `json:"powerpedia_unlocked"`
	TutorialsRecorded     []string `json:"tutorials_recorded"`
	RecordedItems         []string `json:"recorded_items"`
	CurrencyNotes         *int     `json:"currency_notes"`
	TotalParryCounts      *int     `json:"total_parry_counts"`
	TotalEnemiesDefeated  *int     `json:"total_enemies_defeated"`
	TotalDamageDealt      *int     `json:"total_damage_dealt"`
	TotalDamageReceived   *int     `json:"total_damage_received"`
}

// BootstrapView is everything the client needs to render the home screen in
// one round trip.
type BootstrapView struct {
	Player           *types.Player             `json:"player"`
	HasAdventure     bool                      `json:"has_adventure"`
	NeedsDisplayName bool                      `json:"needs_display_name"`
	ActiveAdventure  *types.Adventure          `json:"active_adventure"`
	Mastery          []*types.PlayerKCMastery  `json:"mastery"`
	History          []*types.AdventureSummary `json:"history"`
}

// MaxProjectedKC bounds the mastery projection: the client renders a fixed
// board of knowledge components regardless of which ones have been practiced.
const MaxProjectedKC = 20

// MasteryView is one projected KC row; unseen KCs read as the neutral prior
// with zero counts.
type MasteryView struct {
	KCID              int     `json:"kc_id"`
	PKnow             int     `json:"p_know"`
	Correct           int     `json:"correct"`
	Incorrect         int     `json:"incorrect"`
	BestSentence      *string `json:"best_sentence"`
	BestSentencePower *int    `json:"best_sentence_power"`
}

type PlayerService interface {
	Me(ctx context.Context, playerID uuid.UUID) (*types.Player, error)
	UpdateProfile(ctx context.Context, playerID uuid.UUID, patch ProfilePatch) (*types.Player, error)
	SetDisplayName(ctx context.Context, playerID uuid.UUID, name string) (*types.Player, error)
	DisplayNameAvailable(ctx context.Context, name string) (bool, error)
	Mastery(ctx context.Context, playerID uuid.UUID) ([]*types.PlayerKCMastery, error)
	MasteryProjection(ctx context.Context, playerID uuid.UUID) ([]MasteryView, error)
	AdventureStats(ctx context.Context, playerID uuid.UUID, adventureID uuid.UUID) ([]*types.AdventureKCStat, error)
	Bootstrap(ctx context.Context, playerID uuid.UUID) (*BootstrapView, error)
}

type playerService struct {
	db         *gorm.DB
	log        *logger.Logger
	players    player.PlayerRepo
	adventures adventure.AdventureRepo
	playerKCs  mastery.PlayerMasteryRepo
	advKCs     mastery.AdventureStatRepo
	summaries  summary.SummaryRepo
}

func NewPlayerService(
	db *gorm.DB,
	baseLog *logger.Logger,
	players player.PlayerRepo,
	adventures adventure.AdventureRepo,
	playerKCs mastery.PlayerMasteryRepo,
	advKCs mastery.AdventureStatRepo,
	summaries summary.SummaryRepo,
) PlayerService {
	return &playerService{
		db:         db,
		log:        baseLog.With("service", "PlayerService"),
		players:    players,
		adventures: adventures,
		playerKCs:  playerKCs,
		advKCs:     advKCs,
		summaries:  summaries,
	}
}

func (s *playerService) Me(ctx context.Context, playerID uuid.UUID) (*types.Player, error) {
	p, err := s.players.GetByID(dbctx.Context{Ctx: ctx}, playerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound(errors.New("player not found"))
	}
	return p, nil
}

func (s *playerService) UpdateProfile(ctx context.Context, playerID uuid.UUID, patch ProfilePatch) (*types.Player, error) {
	updates, err := profileUpdates(patch)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	if len(updates) > 0 {
		if err := s.players.UpdateFields(dbc, playerID, updates); err != nil {
			return nil, err
		}
	}
	return s.Me(ctx, playerID)
}

func profileUpdates(patch ProfilePatch) (map[string]any, error) {
	updates := map[string]any{}

	if patch.ProfilePicture != nil {
		updates["profile_picture"] = *patch.ProfilePicture
	}
	if patch.CosmeticEquipped != nil {
		updates["cosmetic_equipped"] = *patch.CosmeticEquipped
	}

	setInt := func(col string, v *int) {
		if v != nil {
			updates[col] = *v
		}
	}
	setInt("hero_pass_level", patch.HeroPassLevel)
	setInt("hero_pass_exp", patch.HeroPassExp)
	setInt("currency_notes", patch.CurrencyNotes)
	setInt("total_parry_counts", patch.TotalParryCounts)
	setInt("total_enemies_defeated", patch.TotalEnemiesDefeated)
	setInt("total_damage_dealt", patch.TotalDamageDealt)
	setInt("total_damage_received", patch.TotalDamageReceived)

	setJSON := func(col string, v any, present bool) error {
		if !present {
			return nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return apierr.Validation(fmt.Errorf("encode %s: %w", col, err))
		}
		updates[col] = datatypes.JSON(raw)
		return nil
	}
	if err := setJSON("cosmetic_unlocked", patch.CosmeticUnlocked, patch.CosmeticUnlocked != nil); err != nil {
		return nil, err
	}
	if err := setJSON("hero_pass_tiers_unlocked", patch.HeroPassTiersUnlocked, patch.HeroPassTiersUnlocked != nil); err != nil {
		return nil, err
	}
	if err := setJSON("achievements_unlocked", patch.AchievementsUnlocked, patch.AchievementsUnlocked != nil); err != nil {
		return nil, err
	}
	if err := setJSON("powerpedia_unlocked", patch.PowerpediaUnlocked, patch.PowerpediaUnlocked != nil); err != nil {
		return nil, err
	}
	if err := setJSON("tutorials_recorded", patch.TutorialsRecorded, patch.TutorialsRecorded != nil); err != nil {
		return nil, err
	}
	if err := setJSON("recorded_items", patch.RecordedItems, patch.RecordedItems != nil); err != nil {
		return nil, err
	}
	return updates, nil
}

// SetDisplayName claims a display name exactly once per player. The unique
// index on players.display_name backs the availability check against races.
func (s *playerService) SetDisplayName(ctx context.Context, playerID uuid.UUID, name string) (*types.Player, error) {
	if err := ValidateDisplayName(name); err != nil {
		return nil, err
	}

	var out *types.Player
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}

		p, err := s.players.GetByID(txc, playerID)
		if err != nil {
			return err
		}
		if p == nil {
			return apierr.NotFound(errors.New("player not found"))
		}
		if p.DisplayName != nil {
			return apierr.Conflict(errors.New("display name already set"))
		}

		holder, err := s.players.GetByDisplayName(txc, name)
		if err != nil {
			return err
		}
		if holder != nil {
			return apierr.Conflict(errors.New("display name is taken"))
		}

		if err := s.players.UpdateFields(txc, playerID, map[string]any{"display_name": name}); err != nil {
			return err
		}
		p.DisplayName = &name
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("display name set", "player_id", playerID, "display_name", name)
	return out, nil
}

func (s *playerService) DisplayNameAvailable(ctx context.Context, name string) (bool, error) {
	if err := ValidateDisplayName(name); err != nil {
		return false, err
	}
	holder, err := s.players.GetByDisplayName(dbctx.Context{Ctx: ctx}, name)
	if err != nil {
		return false, err
	}
	return holder == nil, nil
}

func (s *playerService) Mastery(ctx context.Context, playerID uuid.UUID) ([]*types.PlayerKCMastery, error) {
	return s.playerKCs.ListForPlayer(dbctx.Context{Ctx: ctx}, playerID)
}

// MasteryProjection returns one row per KC in 1..MaxProjectedKC, padding the
// KCs the player has never touched with the neutral prior.
func (s *playerService) MasteryProjection(ctx context.Context, playerID uuid.UUID) ([]MasteryView, error) {
	rows, err := s.playerKCs.ListForPlayer(dbctx.Context{Ctx: ctx}, playerID)
	if err != nil {
		return nil, err
	}

	byKC := make(map[int]*types.PlayerKCMastery, len(rows))
	for _, row := range rows {
		byKC[row.KCID] = row
	}

	out := make([]MasteryView, 0, MaxProjectedKC)
	for kc := 1; kc <= MaxProjectedKC; kc++ {
		view := MasteryView{KCID: kc, PKnow: types.NeutralPKnow}
		if row, ok := byKC[kc]; ok {
			view.PKnow = row.PKnow
			view.Correct = row.Correct
			view.Incorrect = row.Incorrect
			view.BestSentence = row.BestSentence
			view.BestSentencePower = row.BestSentencePower
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *playerService) AdventureStats(ctx context.Context, playerID uuid.UUID, adventureID uuid.UUID) ([]*types.AdventureKCStat, error) {
	dbc := dbctx.Context{Ctx: ctx}
	adv, err := s.adventures.GetByID(dbc, adventureID)
	if err != nil {
		return nil, err
	}
	if adv == nil || adv.PlayerID != playerID {
		return nil, apierr.NotFound(errors.New("adventure not found"))
	}
	return s.advKCs.ListForAdventure(dbc, adventureID)
}

// Bootstrap assembles the home-screen payload. Reads are independent; a
// single transaction is not needed for a point-in-time-ish view.
func (s *playerService) Bootstrap(ctx context.Context, playerID uuid.UUID) (*BootstrapView, error) {
	dbc := dbctx.Context{Ctx: ctx}

	p, err := s.players.GetByID(dbc, playerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound(errors.New("player not found"))
	}

	active, err := s.adventures.GetActiveForPlayer(dbc, playerID)
	if err != nil {
		return nil, err
	}
	masteryRows, err := s.playerKCs.ListForPlayer(dbc, playerID)
	if err != nil {
		return nil, err
	}
	history, err := s.summaries.ListForPlayer(dbc, playerID)
	if err != nil {
		return nil, err
	}

	return &BootstrapView{
		Player:           p,
		HasAdventure:     active != nil,
		NeedsDisplayName: p.DisplayName == nil,
		ActiveAdventure:  active,
		Mastery:          masteryRows,
		History:          history,
	}, nil
}
