package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/grammarheroes/backend/internal/clients/redis"
	"github.com/grammarheroes/backend/internal/clients/sapling"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

// ScorerUnavailableFeedback is returned in place of edit feedback when the
// scorer itself fails; the submission still goes through.
const ScorerUnavailableFeedback = "Could not fully check this sentence. Please try again later."

// GrammarScorer is the upstream grammar checker. Implementations never return
// a Go error; failures arrive as Result.Err.
type GrammarScorer interface {
	Check(ctx context.Context, sentence string) *sapling.Result
}

// ScoreOutcome is one scored sentence. ErrorIndices are whitespace-token
// positions in the original sentence that overlap at least one edit span.
type ScoreOutcome struct {
	IsCorrect    bool     `json:"is_correct"`
	EditCount    int      `json:"edit_count"`
	ErrorIndices []int    `json:"error_indices"`
	Feedback     []string `json:"feedback"`
	FromCache    bool     `json:"from_cache"`
}

type GrammarService interface {
	Score(ctx context.Context, sentence string, kcID int) (*ScoreOutcome, error)
}

type grammarService struct {
	log    *logger.Logger
	scorer GrammarScorer
	cache  redis.CacheStore
	ttl    time.Duration
	flight singleflight.Group
}

func NewGrammarService(baseLog *logger.Logger, scorer GrammarScorer, cache redis.CacheStore, ttl time.Duration) GrammarService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &grammarService{
		log:    baseLog.With("service", "GrammarService"),
		scorer: scorer,
		cache:  cache,
		ttl:    ttl,
	}
}

// Score runs the sentence through the cached scorer. Cache keys are derived
// from the normalized sentence plus the KC id, so the same text practiced
// under a different concept is scored independently. Concurrent misses for
// one key collapse into a single upstream call.
func (g *grammarService) Score(ctx context.Context, sentence string, kcID int) (*ScoreOutcome, error) {
	key := sentenceCacheKey(NormalizeSentence(sentence), kcID)

	if raw, ok := g.cache.Get(ctx, key); ok {
		var out ScoreOutcome
		if err := json.Unmarshal(raw, &out); err == nil {
			out.FromCache = true
			return &out, nil
		}
		g.log.Warn("dropping undecodable cache entry", "key", key)
	}

	v, err, _ := g.flight.Do(key, func() (any, error) {
		res := g.scorer.Check(ctx, sentence)
		out := buildOutcome(sentence, res)
		if res.Err == "" {
			if raw, err := json.Marshal(out); err == nil {
				g.cache.Set(ctx, key, raw, g.ttl)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ScoreOutcome), nil
}

func buildOutcome(sentence string, res *sapling.Result) *ScoreOutcome {
	out := &ScoreOutcome{
		ErrorIndices: []int{},
		Feedback:     []string{},
	}

	if res.Err != "" {
		// Scorer failure: fail open with no edits but a visible notice.
		out.IsCorrect = true
		out.Feedback = append(out.Feedback, ScorerUnavailableFeedback)
		return out
	}

	out.EditCount = len(res.Edits)
	out.IsCorrect = len(res.Edits) == 0
	out.ErrorIndices = errorTokenIndices(sentence, res.Edits)
	for _, e := range res.Edits {
		if fb := editFeedback(e); fb != "" {
			out.Feedback = append(out.Feedback, fb)
		}
	}
	return out
}

var tokenRE = regexp.MustCompile(`\S+`)

// errorTokenIndices maps edit character spans onto whitespace-token indices
// of the original sentence. A token is flagged when its span overlaps the
// edit span at all. Offsets are in runes to match the scorer's convention.
func errorTokenIndices(sentence string, edits []sapling.Edit) []int {
	indices := []int{}
	if len(edits) == 0 {
		return indices
	}

	spans := tokenRuneSpans(sentence)
	seen := make(map[int]bool)
	for _, e := range edits {
		for i, sp := range spans {
			if e.End > sp[0] && e.Start < sp[1] && !seen[i] {
				seen[i] = true
				indices = append(indices, i)
			}
		}
	}
	sort.Ints(indices)
	return indices
}

func tokenRuneSpans(s string) [][2]int {
	byteSpans := tokenRE.FindAllStringIndex(s, -1)
	spans := make([][2]int, 0, len(byteSpans))

	// Prefix sums of rune counts per byte offset would be overkill for
	// sentence-length input; convert each span directly.
	runeAt := func(byteOff int) int {
		return len([]rune(s[:byteOff]))
	}
	for _, bs := range byteSpans {
		spans = append(spans, [2]int{runeAt(bs[0]), runeAt(bs[1])})
	}
	return spans
}

func editFeedback(e sapling.Edit) string {
	runes := []rune(e.Sentence)
	start, end := e.Start, e.End
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		if e.Replacement != "" {
			return fmt.Sprintf("Insert '%s'", e.Replacement)
		}
		return ""
	}

	wrong := string(runes[start:end])
	if e.Replacement != "" {
		return fmt.Sprintf("Replace '%s' with '%s'", wrong, e.Replacement)
	}
	return fmt.Sprintf("Remove '%s'", wrong)
}
