package player_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/grammarheroes/backend/internal/data/repos/player"
	"github.com/grammarheroes/backend/internal/data/repos/testutil"
	types "github.com/grammarheroes/backend/internal/domain"
	"github.com/grammarheroes/backend/internal/platform/dbctx"
)

func TestClaimSessionOrdering(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := player.NewPlayerRepo(gdb, testutil.Logger(t))
	p := testutil.SeedPlayer(t, ctx, tx, "claim-ordering")

	// First login claims freely.
	claimed, err := repo.ClaimSession(dbc, p.ID, 1000)
	if err != nil || !claimed {
		t.Fatalf("first claim = %v, %v", claimed, err)
	}

	// Newer credential wins.
	claimed, err = repo.ClaimSession(dbc, p.ID, 2000)
	if err != nil || !claimed {
		t.Fatalf("newer claim = %v, %v", claimed, err)
	}

	// Replaying the older credential must not roll authority back.
	claimed, err = repo.ClaimSession(dbc, p.ID, 1000)
	if err != nil {
		t.Fatalf("older claim: %v", err)
	}
	if claimed {
		t.Fatal("older issue time must not reclaim the session")
	}

	// Equal issue time does not fire the guarded update either.
	claimed, err = repo.ClaimSession(dbc, p.ID, 2000)
	if err != nil {
		t.Fatalf("equal claim: %v", err)
	}
	if claimed {
		t.Fatal("equal issue time must not rewrite authority")
	}

	got, err := repo.GetByID(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ActiveSessionAuthTime == nil || *got.ActiveSessionAuthTime != 2000 {
		t.Fatalf("recorded authority = %v, want 2000", got.ActiveSessionAuthTime)
	}
}

func TestCreateIgnoresDuplicateProviderUID(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := player.NewPlayerRepo(gdb, testutil.Logger(t))
	first := testutil.SeedPlayer(t, ctx, tx, "dup-uid")

	dup := &types.Player{
		ID:          uuid.New(),
		ProviderUID: "dup-uid",
		Email:       "other@example.com",
	}
	if err := repo.Create(dbc, dup); err != nil {
		t.Fatalf("duplicate create must be a no-op, got %v", err)
	}

	got, err := repo.GetByProviderUID(dbc, "dup-uid")
	if err != nil {
		t.Fatalf("GetByProviderUID: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("duplicate insert replaced the original row: %s != %s", got.ID, first.ID)
	}
}

func TestGetByDisplayName(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := player.NewPlayerRepo(gdb, testutil.Logger(t))
	p := testutil.SeedPlayer(t, ctx, tx, "named-player")

	if err := repo.UpdateFields(dbc, p.ID, map[string]any{"display_name": "Hero_42"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	got, err := repo.GetByDisplayName(dbc, "Hero_42")
	if err != nil {
		t.Fatalf("GetByDisplayName: %v", err)
	}
	if got == nil || got.ID != p.ID {
		t.Fatalf("unexpected holder: %+v", got)
	}

	missing, err := repo.GetByDisplayName(dbc, "Nobody_99")
	if err != nil {
		t.Fatalf("GetByDisplayName(missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unclaimed name, got %+v", missing)
	}
}

func TestIncrementAdventuresCleared(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := player.NewPlayerRepo(gdb, testutil.Logger(t))
	p := testutil.SeedPlayer(t, ctx, tx, "cleared-counter")

	if err := repo.IncrementAdventuresCleared(dbc, p.ID); err != nil {
		t.Fatalf("first increment: %v", err)
	}
	if err := repo.IncrementAdventuresCleared(dbc, p.ID); err != nil {
		t.Fatalf("second increment: %v", err)
	}

	got, err := repo.GetByID(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TotalAdventuresCleared != 2 {
		t.Fatalf("total_adventures_cleared = %d, want 2", got.TotalAdventuresCleared)
	}
}
