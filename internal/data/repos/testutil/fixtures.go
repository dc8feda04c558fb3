package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/grammarheroes/backend/internal/domain"
)

func SeedPlayer(tb testing.TB, ctx context.Context, tx *gorm.DB, providerUID string) *types.Player {
	tb.Helper()
	p := &types.Player{
		ID:          uuid.New(),
		ProviderUID: providerUID,
		Email:       fmt.Sprintf("%s@example.com", providerUID),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed player: %v", err)
	}
	return p
}

func SeedAdventure(tb testing.TB, ctx context.Context, tx *gorm.DB, playerID uuid.UUID, state string) *types.Adventure {
	tb.Helper()
	adv := &types.Adventure{
		ID:           uuid.New(),
		PlayerID:     playerID,
		Seed:         "seed-abc",
		State:        state,
		ClearedNodes: []byte(`["node0_0"]`),
		CurrentFloor: 1,
		Level:        1,
		EnemyLevel:   1,
	}
	if err := tx.WithContext(ctx).Create(adv).Error; err != nil {
		tb.Fatalf("seed adventure: %v", err)
	}
	return adv
}

func SeedAdventureKCStat(tb testing.TB, ctx context.Context, tx *gorm.DB, adventureID uuid.UUID, kcID, correct, incorrect int) *types.AdventureKCStat {
	tb.Helper()
	row := &types.AdventureKCStat{
		AdventureID: adventureID,
		KCID:        kcID,
		PKnow:       types.NeutralPKnow,
		Correct:     correct,
		Incorrect:   incorrect,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed adventure kc stat: %v", err)
	}
	return row
}
