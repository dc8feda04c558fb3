package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	redisclient "github.com/grammarheroes/backend/internal/clients/redis"
	"github.com/grammarheroes/backend/internal/clients/sapling"
	"github.com/grammarheroes/backend/internal/platform/logger"
)

type stubScorer struct {
	calls int
	res   *sapling.Result
}

func (s *stubScorer) Check(_ context.Context, _ string) *sapling.Result {
	s.calls++
	return s.res
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func newGrammarFixture(t *testing.T, res *sapling.Result) (GrammarService, *stubScorer) {
	t.Helper()
	scorer := &stubScorer{res: res}
	log := testLogger(t)
	cache := redisclient.NewCacheStore(log, nil, redisclient.NewMemoryStore(64))
	return NewGrammarService(log, scorer, cache, time.Hour), scorer
}

func TestScoreCleanSentence(t *testing.T) {
	svc, _ := newGrammarFixture(t, &sapling.Result{Edits: []sapling.Edit{}})

	out, err := svc.Score(context.Background(), "He goes to school.", 3)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !out.IsCorrect || out.EditCount != 0 {
		t.Fatalf("expected clean verdict, got %+v", out)
	}
	if len(out.ErrorIndices) != 0 || len(out.Feedback) != 0 {
		t.Fatalf("clean sentence must carry no indices or feedback: %+v", out)
	}
	if out.FromCache {
		t.Fatal("first score must not come from cache")
	}
}

func TestScoreMapsEditsToTokens(t *testing.T) {
	sentence := "He go to school"
	svc, _ := newGrammarFixture(t, &sapling.Result{Edits: []sapling.Edit{
		{Sentence: sentence, Start: 3, End: 5, Replacement: "goes"},
	}})

	out, err := svc.Score(context.Background(), sentence, 3)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out.IsCorrect {
		t.Fatal("edited sentence must be incorrect")
	}
	if !reflect.DeepEqual(out.ErrorIndices, []int{1}) {
		t.Fatalf("error indices = %v, want [1]", out.ErrorIndices)
	}
	if len(out.Feedback) != 1 || out.Feedback[0] != "Replace 'go' with 'goes'" {
		t.Fatalf("feedback = %v", out.Feedback)
	}
}

func TestScoreRemovalFeedback(t *testing.T) {
	sentence := "He goes to to school"
	svc, _ := newGrammarFixture(t, &sapling.Result{Edits: []sapling.Edit{
		{Sentence: sentence, Start: 8, End: 11, Replacement: ""},
	}})

	out, err := svc.Score(context.Background(), sentence, 2)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(out.Feedback) != 1 || out.Feedback[0] != "Remove 'to '" {
		t.Fatalf("feedback = %v", out.Feedback)
	}
}

func TestScoreCachesVerdicts(t *testing.T) {
	svc, scorer := newGrammarFixture(t, &sapling.Result{Edits: []sapling.Edit{}})
	ctx := context.Background()

	if _, err := svc.Score(ctx, "He goes to school.", 3); err != nil {
		t.Fatalf("first score: %v", err)
	}
	// Normalized variant of the same sentence must hit the cache.
	out, err := svc.Score(ctx, "he goes   to school", 3)
	if err != nil {
		t.Fatalf("second score: %v", err)
	}
	if !out.FromCache {
		t.Fatal("expected cache hit")
	}
	if scorer.calls != 1 {
		t.Fatalf("scorer called %d times, want 1", scorer.calls)
	}
}

func TestScoreFailsOpenOnScorerError(t *testing.T) {
	svc, scorer := newGrammarFixture(t, &sapling.Result{Err: "scorer unreachable"})
	ctx := context.Background()

	out, err := svc.Score(ctx, "He goes to school.", 3)
	if err != nil {
		t.Fatalf("Score must not surface scorer failures: %v", err)
	}
	if !out.IsCorrect || out.EditCount != 0 {
		t.Fatalf("failure must read as zero edits, got %+v", out)
	}
	if len(out.Feedback) != 1 || out.Feedback[0] != ScorerUnavailableFeedback {
		t.Fatalf("feedback = %v", out.Feedback)
	}

	// Failures are never cached: the next attempt reaches the scorer again.
	if _, err := svc.Score(ctx, "He goes to school.", 3); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if scorer.calls != 2 {
		t.Fatalf("scorer called %d times, want 2", scorer.calls)
	}
}
