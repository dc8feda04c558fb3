package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclient "github.com/grammarheroes/backend/internal/clients/redis"
	"github.com/grammarheroes/backend/internal/data/repos/adventure"
	"github.com/grammarheroes/backend/internal/data/repos/mastery"
	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/apierr"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

const maxSentenceLen = 512

type SubmitInput struct {
	AdventureID   string `json:"adventure_id"`
	KCID          int    `json:"kc_id"`
	Sentence      string `json:"sentence"`
	SentencePower *int   `json:"sentence_power"`
	IsPractice    bool   `json:"is_practice"`

	IdempotencyKey string `json:"-"`
}

// SubmitResult is the scored submission plus the post-update mastery
// estimates. PKnowAdventure stays at the neutral prior for practice
// submissions, which touch no run.
type SubmitResult struct {
	IsCorrect      bool     `json:"is_correct"`
	EditCount      int      `json:"edit_count"`
	ErrorIndices   []int    `json:"error_indices"`
	Feedback       []string `json:"feedback"`
	FromCache      bool     `json:"from_cache"`
	PKnowPlayer    float64  `json:"p_know_player"`
	PKnowAdventure float64  `json:"p_know_adventure"`
}

type SubmissionService interface {
	Submit(ctx context.Context, playerID uuid.UUID, in SubmitInput) (*SubmitResult, error)
}

type submissionService struct {
	db         *gorm.DB
	log        *logger.Logger
	grammar    GrammarService
	adventures adventure.AdventureRepo
	playerKCs  mastery.PlayerMasteryRepo
	advKCs     mastery.AdventureStatRepo
	guard      redisclient.Guard
	params     BKTParams
}

func NewSubmissionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	grammar GrammarService,
	adventures adventure.AdventureRepo,
	playerKCs mastery.PlayerMasteryRepo,
	advKCs mastery.AdventureStatRepo,
	guard redisclient.Guard,
) SubmissionService {
	return &submissionService{
		db:         db,
		log:        baseLog.With("service", "SubmissionService"),
		grammar:    grammar,
		adventures: adventures,
		playerKCs:  playerKCs,
		advKCs:     advKCs,
		guard:      guard,
		params:     DefaultBKTParams(),
	}
}

// Submit runs the full pipeline: validate, resolve the target run, claim the
// idempotency token, score the sentence, then apply both mastery scopes and
// the run tally in one transaction. Practice submissions skip the run and
// update lifetime mastery only.
func (s *submissionService) Submit(ctx context.Context, playerID uuid.UUID, in SubmitInput) (*SubmitResult, error) {
	sentence := strings.TrimSpace(in.Sentence)
	if in.KCID <= 0 {
		return nil, apierr.Validation(errors.New("kc_id must be positive"))
	}
	if sentence == "" || len(sentence) > maxSentenceLen {
		return nil, apierr.Validation(fmt.Errorf("sentence must be 1..%d characters", maxSentenceLen))
	}

	var adv *types.Adventure
	if !in.IsPractice {
		advID, err := uuid.Parse(in.AdventureID)
		if err != nil {
			return nil, apierr.Validation(fmt.Errorf("invalid adventure_id: %w", err))
		}
		dbc := dbctx.Context{Ctx: ctx}
		adv, err = s.adventures.GetByID(dbc, advID)
		if err != nil {
			return nil, err
		}
		if adv == nil || adv.PlayerID != playerID {
			return nil, apierr.NotFound(errors.New("adventure not found"))
		}
		if adv.State != types.AdventureInProgress {
			return nil, apierr.Conflict(errors.New("adventure is not in progress"))
		}
	}

	if in.IdempotencyKey != "" {
		key := fmt.Sprintf("submit:player:%s:%s", playerID, in.IdempotencyKey)
		if adv != nil {
			key = fmt.Sprintf("submit:%s:%s", adv.ID, in.IdempotencyKey)
		}
		claimed, err := s.guard.Claim(ctx, key, idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, apierr.Duplicate(errors.New("submission already processed"))
		}
	}

	outcome, err := s.grammar.Score(ctx, sentence, in.KCID)
	if err != nil {
		return nil, err
	}

	res := &SubmitResult{
		IsCorrect:      outcome.IsCorrect,
		EditCount:      outcome.EditCount,
		ErrorIndices:   outcome.ErrorIndices,
		Feedback:       outcome.Feedback,
		FromCache:      outcome.FromCache,
		PKnowAdventure: PKnowFromStored(types.NeutralPKnow),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}

		pKnow, err := s.applyPlayerMastery(txc, playerID, in.KCID, sentence, in.SentencePower, outcome.IsCorrect)
		if err != nil {
			return err
		}
		res.PKnowPlayer = pKnow

		if adv != nil {
			pKnow, err := s.applyAdventureStat(txc, adv.ID, in.KCID, sentence, in.SentencePower, outcome.IsCorrect)
			if err != nil {
				return err
			}
			res.PKnowAdventure = pKnow
			if err := s.adventures.IncrementSubmissionTally(txc, adv.ID, outcome.IsCorrect); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *submissionService) applyPlayerMastery(dbc dbctx.Context, playerID uuid.UUID, kcID int, sentence string, power *int, correct bool) (float64, error) {
	row, err := s.playerKCs.Get(dbc, playerID, kcID)
	if err != nil {
		return 0, err
	}

	prior := PKnowFromStored(types.NeutralPKnow)
	if row != nil {
		prior = PKnowFromStored(row.PKnow)
	}
	next := UpdatePKnow(prior, correct, s.params)
	stored := StoredPKnow(next)

	if row == nil {
		fresh := &types.PlayerKCMastery{
			PlayerID: playerID,
			KCID:     kcID,
			PKnow:    stored,
		}
		tallyMastery(&fresh.Correct, &fresh.Incorrect, correct)
		if correct {
			fresh.BestSentence = &sentence
			fresh.BestSentencePower = power
		}
		return next, s.playerKCs.Create(dbc, fresh)
	}

	updates := map[string]any{"p_know": stored}
	if correct {
		updates["correct"] = row.Correct + 1
		if betterSentence(row.BestSentencePower, power) {
			updates["best_sentence"] = sentence
			updates["best_sentence_power"] = power
		}
	} else {
		updates["incorrect"] = row.Incorrect + 1
	}
	return next, s.playerKCs.UpdateFields(dbc, playerID, kcID, updates)
}

func (s *submissionService) applyAdventureStat(dbc dbctx.Context, advID uuid.UUID, kcID int, sentence string, power *int, correct bool) (float64, error) {
	row, err := s.advKCs.Get(dbc, advID, kcID)
	if err != nil {
		return 0, err
	}

	prior := PKnowFromStored(types.NeutralPKnow)
	if row != nil {
		prior = PKnowFromStored(row.PKnow)
	}
	next := UpdatePKnow(prior, correct, s.params)
	stored := StoredPKnow(next)

	if row == nil {
		fresh := &types.AdventureKCStat{
			AdventureID: advID,
			KCID:        kcID,
			PKnow:       stored,
		}
		tallyMastery(&fresh.Correct, &fresh.Incorrect, correct)
		if correct {
			fresh.BestSentence = &sentence
			fresh.BestSentencePower = power
		}
		return next, s.advKCs.Create(dbc, fresh)
	}

	updates := map[string]any{"p_know": stored}
	if correct {
		updates["correct"] = row.Correct + 1
		if betterSentence(row.BestSentencePower, power) {
			updates["best_sentence"] = sentence
			updates["best_sentence_power"] = power
		}
	} else {
		updates["incorrect"] = row.Incorrect + 1
	}
	return next, s.advKCs.UpdateFields(dbc, advID, kcID, updates)
}

func tallyMastery(correctCol, incorrectCol *int, correct bool) {
	if correct {
		*correctCol = 1
	} else {
		*incorrectCol = 1
	}
}

// betterSentence reports whether the candidate power beats the recorded best.
// A correct sentence with no reported power only fills an empty slot.
func betterSentence(current, candidate *int) bool {
	if candidate == nil {
		return current == nil
	}
	return current == nil || *candidate > *current
}
