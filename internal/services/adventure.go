package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/grammarheroes/backend/internal/clients/redis"
	"github.com/grammarheroes/backend/internal/data/repos/adventure"
	"github.com/grammarheroes/backend/internal/data/repos/mastery"
	"github.com/grammarheroes/backend/internal/data/repos/player"
	"github.com/grammarheroes/backend/internal/data/repos/summary"
	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/apierr"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

const (
	maxSeedLen      = 64
	idempotencyTTL  = 24 * time.Hour
	initialNodeJSON = `["node0_0"]`
)

type StartInput struct {
	Seed       string `json:"seed"`
	IsPractice bool   `json:"is_practice"`
	ForceNew   bool   `json:"force_new"`
}

// ProgressPatch is a sparse update: nil fields are left untouched. Lifecycle
// state and seed are deliberately not patchable.
type ProgressPatch struct {
	CurrentNodeID        *string  `json:"current_node_id"`
	CurrentNodeKC        *int     `json:"current_node_kc"`
	ClearedNodes         []string `json:"cleared_nodes"`
	ItemsCollected       []string `json:"items_collected"`
	NodeName             *string  `json:"node_name"`
	CurrentFloor         *int     `json:"current_floor"`
	Level                *int     `json:"level"`
	AddWritingLevel      *int     `json:"add_writing_level"`
	AddDefenseLevel      *int     `json:"add_defense_level"`
	EnemyLevel           *int     `json:"enemy_level"`
	AddEnemyWritingLevel *int     `json:"add_enemy_writing_level"`
	AddEnemyDefenseLevel *int     `json:"add_enemy_defense_level"`
	EnemiesDefeated      *int     `json:"enemies_defeated"`
	TotalDamageDealt     *int     `json:"total_damage_dealt"`
	TotalDamageReceived  *int     `json:"total_damage_received"`
	RewardHeroPassExp    *int     `json:"reward_hero_pass_exp"`
	RewardNotes          *int     `json:"reward_notes"`
	NodeTypesCleared     []int    `json:"node_types_cleared"`
}

type FinishInput struct {
	AdventureID         string   `json:"adventure_id"`
	Status              string   `json:"status"`
	DayInEpochTime      int64    `json:"day_in_epoch_time"`
	HighestFloorCleared int      `json:"highest_floor_cleared"`
	TimeSpentSeconds    int      `json:"time_spent_seconds"`
	ItemsCollected      []string `json:"items_collected"`
	NodeTypesCleared    []int    `json:"node_types_cleared"`
	Level               int      `json:"level"`
	EnemyLevel          int      `json:"enemy_level"`
	EnemiesDefeated     int      `json:"enemies_defeated"`
	BestSentence        *string  `json:"best_sentence"`
	BestSentencePower   *int     `json:"best_sentence_power"`
	TotalDamageDealt    int      `json:"total_damage_dealt"`
	TotalDamageReceived int      `json:"total_damage_received"`

	IdempotencyKey string `json:"-"`
}

// FinishResult reports either the freshly written summary or, for a replayed
// idempotency token, the already-recorded one with Duplicate set.
type FinishResult struct {
	Duplicate bool                    `json:"duplicate"`
	Summary   *types.AdventureSummary `json:"summary"`
}

type AdventureService interface {
	Start(ctx context.Context, playerID uuid.UUID, in StartInput) (*types.Adventure, error)
	GetActive(ctx context.Context, playerID uuid.UUID) (*types.Adventure, error)
	Progress(ctx context.Context, playerID uuid.UUID, patch ProgressPatch) (*types.Adventure, error)
	Finish(ctx context.Context, playerID uuid.UUID, in FinishInput) (*FinishResult, error)
	GetSummary(ctx context.Context, playerID uuid.UUID, adventureID uuid.UUID) (*types.AdventureSummary, error)
	History(ctx context.Context, playerID uuid.UUID) ([]*types.AdventureSummary, error)
}

type adventureService struct {
	db         *gorm.DB
	log        *logger.Logger
	players    player.PlayerRepo
	adventures adventure.AdventureRepo
	stats      mastery.AdventureStatRepo
	summaries  summary.SummaryRepo
	guard      redisclient.Guard
}

func NewAdventureService(
	db *gorm.DB,
	baseLog *logger.Logger,
	players player.PlayerRepo,
	adventures adventure.AdventureRepo,
	stats mastery.AdventureStatRepo,
	summaries summary.SummaryRepo,
	guard redisclient.Guard,
) AdventureService {
	return &adventureService{
		db:         db,
		log:        baseLog.With("service", "AdventureService"),
		players:    players,
		adventures: adventures,
		stats:      stats,
		summaries:  summaries,
		guard:      guard,
	}
}

// Start begins a run. With an active run and force_new unset, the active run
// is returned unchanged; with force_new, the active run is abandoned as
// failed and a fresh one is created in the same transaction.
func (s *adventureService) Start(ctx context.Context, playerID uuid.UUID, in StartInput) (*types.Adventure, error) {
	seed := strings.TrimSpace(in.Seed)
	if seed == "" || len(seed) > maxSeedLen {
		return nil, apierr.Validation(fmt.Errorf("seed must be 1..%d characters", maxSeedLen))
	}

	var out *types.Adventure
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		active, err := s.adventures.GetActiveForPlayer(dbc, playerID)
		if err != nil {
			return err
		}
		if active != nil {
			if !in.ForceNew {
				out = active
				return nil
			}
			if _, err := s.adventures.AbandonActiveForPlayer(dbc, playerID); err != nil {
				return err
			}
			s.log.Info("abandoned active adventure", "player_id", playerID, "adventure_id", active.ID)
		}

		adv := &types.Adventure{
			ID:               uuid.New(),
			PlayerID:         playerID,
			Seed:             seed,
			State:            types.AdventureInProgress,
			IsPractice:       in.IsPractice,
			ClearedNodes:     datatypes.JSON(initialNodeJSON),
			ItemsCollected:   datatypes.JSON(`[]`),
			NodeTypesCleared: datatypes.JSON(`[]`),
			CurrentFloor:     1,
			Level:            1,
			EnemyLevel:       1,
			StartedAt:        time.Now().UTC(),
		}
		if err := s.adventures.Create(dbc, adv); err != nil {
			return err
		}
		out = adv
		return nil
	})
	if err != nil {
		// The partial unique index rejects the loser of a concurrent Start;
		// the winner's run is the canonical one.
		dbc := dbctx.Context{Ctx: ctx}
		if winner, rerr := s.adventures.GetActiveForPlayer(dbc, playerID); rerr == nil && winner != nil {
			return winner, nil
		}
		return nil, err
	}
	return out, nil
}

func (s *adventureService) GetActive(ctx context.Context, playerID uuid.UUID) (*types.Adventure, error) {
	adv, err := s.adventures.GetActiveForPlayer(dbctx.Context{Ctx: ctx}, playerID)
	if err != nil {
		return nil, err
	}
	if adv == nil {
		return nil, apierr.NotFound(errors.New("no active adventure"))
	}
	return adv, nil
}

// Progress merges the non-nil patch fields into the active run.
func (s *adventureService) Progress(ctx context.Context, playerID uuid.UUID, patch ProgressPatch) (*types.Adventure, error) {
	dbc := dbctx.Context{Ctx: ctx}
	adv, err := s.adventures.GetActiveForPlayer(dbc, playerID)
	if err != nil {
		return nil, err
	}
	if adv == nil {
		return nil, apierr.NotFound(errors.New("no active adventure"))
	}

	updates, err := progressUpdates(patch)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return adv, nil
	}
	if err := s.adventures.UpdateFields(dbc, adv.ID, updates); err != nil {
		return nil, err
	}
	return s.adventures.GetByID(dbc, adv.ID)
}

func progressUpdates(patch ProgressPatch) (map[string]any, error) {
	updates := map[string]any{}

	setInt := func(col string, v *int) {
		if v != nil {
			updates[col] = *v
		}
	}
	setInt("current_node_kc", patch.CurrentNodeKC)
	setInt("current_floor", patch.CurrentFloor)
	setInt("level", patch.Level)
	setInt("add_writing_level", patch.AddWritingLevel)
	setInt("add_defense_level", patch.AddDefenseLevel)
	setInt("enemy_level", patch.EnemyLevel)
	setInt("add_enemy_writing_level", patch.AddEnemyWritingLevel)
	setInt("add_enemy_defense_level", patch.AddEnemyDefenseLevel)
	setInt("enemies_defeated", patch.EnemiesDefeated)
	setInt("total_damage_dealt", patch.TotalDamageDealt)
	setInt("total_damage_received", patch.TotalDamageReceived)
	setInt("reward_hero_pass_exp", patch.RewardHeroPassExp)
	setInt("reward_notes", patch.RewardNotes)

	if patch.CurrentNodeID != nil {
		updates["current_node_id"] = *patch.CurrentNodeID
	}
	if patch.NodeName != nil {
		updates["node_name"] = *patch.NodeName
	}

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
	if err := setJSON("cleared_nodes", patch.ClearedNodes, patch.ClearedNodes != nil); err != nil {
		return nil, err
	}
	if err := setJSON("items_collected", patch.ItemsCollected, patch.ItemsCollected != nil); err != nil {
		return nil, err
	}
	if err := setJSON("node_types_cleared", patch.NodeTypesCleared, patch.NodeTypesCleared != nil); err != nil {
		return nil, err
	}
	return updates, nil
}

// Finish settles a run exactly once: flips the state under an in_progress
// guard, ranks KCs, writes the immutable summary, and bumps the player's
// cleared counter for successful runs, all in one transaction.
func (s *adventureService) Finish(ctx context.Context, playerID uuid.UUID, in FinishInput) (*FinishResult, error) {
	advID, err := uuid.Parse(in.AdventureID)
	if err != nil {
		return nil, apierr.Validation(fmt.Errorf("invalid adventure_id: %w", err))
	}
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status != types.AdventureSuccess && status != types.AdventureFailed {
		return nil, apierr.Validation(fmt.Errorf("status must be %q or %q", types.AdventureSuccess, types.AdventureFailed))
	}

	dbc := dbctx.Context{Ctx: ctx}
	adv, err := s.adventures.GetByID(dbc, advID)
	if err != nil {
		return nil, err
	}
	if adv == nil || adv.PlayerID != playerID {
		return nil, apierr.NotFound(errors.New("adventure not found"))
	}
	if adv.State != types.AdventureInProgress {
		return nil, apierr.Conflict(errors.New("adventure already finished"))
	}

	if in.IdempotencyKey != "" {
		claimed, err := s.guard.Claim(ctx, fmt.Sprintf("finish:%s:%s", advID, in.IdempotencyKey), idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !claimed {
			prior, err := s.summaries.GetByAdventureID(dbc, advID)
			if err != nil {
				return nil, err
			}
			return &FinishResult{Duplicate: true, Summary: prior}, nil
		}
	}

	var sum *types.AdventureSummary
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}

		stats, err := s.stats.ListForAdventure(txc, advID)
		if err != nil {
			return err
		}
		bestKC, worstKC := rankKCs(stats)

		now := time.Now().UTC()
		rows, err := s.adventures.FinishIfInProgress(txc, advID, map[string]any{
			"state":                 status,
			"finished_at":           now,
			"enemies_defeated":      in.EnemiesDefeated,
			"total_damage_dealt":    in.TotalDamageDealt,
			"total_damage_received": in.TotalDamageReceived,
			"best_sentence":         in.BestSentence,
			"best_sentence_power":   in.BestSentencePower,
			"best_kc_id":            bestKC,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return apierr.Conflict(errors.New("adventure already finished"))
		}

		sum = &types.AdventureSummary{
			AdventureID:          advID,
			Status:               status,
			DayInEpochTime:       in.DayInEpochTime,
			HighestFloorCleared:  in.HighestFloorCleared,
			TimeSpentSeconds:     in.TimeSpentSeconds,
			ItemsCollectedJSON:   joinStrings(in.ItemsCollected),
			NodeTypesClearedJSON: joinInts(in.NodeTypesCleared),
			Level:                in.Level,
			EnemyLevel:           in.EnemyLevel,
			EnemiesDefeated:      in.EnemiesDefeated,
			BestKCID:             bestKC,
			WorstKCID:            worstKC,
			BestSentence:         in.BestSentence,
			TotalDamageDealt:     in.TotalDamageDealt,
			TotalDamageReceived:  in.TotalDamageReceived,
		}
		if err := s.summaries.Create(txc, sum); err != nil {
			return err
		}

		if status == types.AdventureSuccess {
			if err := s.players.IncrementAdventuresCleared(txc, playerID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("adventure finished", "adventure_id", advID, "status", status)
	return &FinishResult{Summary: sum}, nil
}

// rankKCs picks best and worst by net score (correct - incorrect). Ties go to
// the lowest KC id; the input is already ordered by kc_id ascending.
func rankKCs(stats []*types.AdventureKCStat) (best, worst *int) {
	if len(stats) == 0 {
		return nil, nil
	}
	bestScore, worstScore := 0, 0
	for _, st := range stats {
		score := st.Correct - st.Incorrect
		if best == nil || score > bestScore {
			kc := st.KCID
			best, bestScore = &kc, score
		}
		if worst == nil || score < worstScore {
			kc := st.KCID
			worst, worstScore = &kc, score
		}
	}
	return best, worst
}

func (s *adventureService) GetSummary(ctx context.Context, playerID uuid.UUID, adventureID uuid.UUID) (*types.AdventureSummary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	adv, err := s.adventures.GetByID(dbc, adventureID)
	if err != nil {
		return nil, err
	}
	if adv == nil || adv.PlayerID != playerID {
		return nil, apierr.NotFound(errors.New("adventure not found"))
	}
	sum, err := s.summaries.GetByAdventureID(dbc, adventureID)
	if err != nil {
		return nil, err
	}
	if sum == nil {
		return nil, apierr.NotFound(errors.New("adventure has no summary yet"))
	}
	return sum, nil
}

func (s *adventureService) History(ctx context.Context, playerID uuid.UUID) ([]*types.AdventureSummary, error) {
	return s.summaries.ListForPlayer(dbctx.Context{Ctx: ctx}, playerID)
}

func joinStrings(items []string) *string {
	if len(items) == 0 {
		return nil
	}
	v := strings.Join(items, ",")
	return &v
}

func joinInts(items []int) *string {
	if len(items) == 0 {
		return nil
	}
	parts := make([]string, 0, len(items))
	for _, n := range items {
		parts = append(parts, strconv.Itoa(n))
	}
	v := strings.Join(parts, ",")
	return &v
}
