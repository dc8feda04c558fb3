package services

import (
	"context"
	"testing"

	"github.com/grammarheroes/backend/internal/platform/apierr"
)

func TestSetDisplayNameIsSetOnce(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()
	p := f.playerID(t, "name-once")

	got, err := f.playerSvc.SetDisplayName(ctx, p.ID, "Hero_One")
	if err != nil {
		t.Fatalf("SetDisplayName: %v", err)
	}
	if got.DisplayName == nil || *got.DisplayName != "Hero_One" {
		t.Fatalf("display_name = %v", got.DisplayName)
	}

	if _, err := f.playerSvc.SetDisplayName(ctx, p.ID, "Hero_Two"); !apierr.IsCode(err, apierr.CodeConflict) {
		t.Fatalf("second set error = %v, want conflict", err)
	}
}

func TestSetDisplayNameRejectsTakenName(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()
	first := f.playerID(t, "name-holder")
	second := f.playerID(t, "name-wanter")

	if _, err := f.playerSvc.SetDisplayName(ctx, first.ID, "Shared_Name"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := f.playerSvc.SetDisplayName(ctx, second.ID, "Shared_Name"); !apierr.IsCode(err, apierr.CodeConflict) {
		t.Fatalf("taken name error = %v, want conflict", err)
	}
}

func TestDisplayNameAvailable(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()
	p := f.playerID(t, "name-avail")

	available, err := f.playerSvc.DisplayNameAvailable(ctx, "Fresh_Name")
	if err != nil || !available {
		t.Fatalf("unclaimed name availability = %v, %v", available, err)
	}

	if _, err := f.playerSvc.SetDisplayName(ctx, p.ID, "Fresh_Name"); err != nil {
		t.Fatalf("SetDisplayName: %v", err)
	}

	available, err = f.playerSvc.DisplayNameAvailable(ctx, "Fresh_Name")
	if err != nil || available {
		t.Fatalf("claimed name availability = %v, %v", available, err)
	}

	if _, err := f.playerSvc.DisplayNameAvailable(ctx, "x"); !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("invalid name error = %v, want validation_error", err)
	}
}

func TestUpdateProfileSparsePatch(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()
	p := f.playerID(t, "profile-patch")

	skin := "skin_knight"
	notes := 120
	got, err := f.playerSvc.UpdateProfile(ctx, p.ID, ProfilePatch{
		CosmeticEquipped: &skin,
		CurrencyNotes:    &notes,
		CosmeticUnlocked: []string{"skin_default", "skin_knight"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.CosmeticEquipped != "skin_knight" || got.CurrencyNotes != 120 {
		t.Fatalf("patched player = %+v", got)
	}
	if string(got.CosmeticUnlocked) != `["skin_default","skin_knight"]` {
		t.Fatalf("cosmetic_unlocked = %s", got.CosmeticUnlocked)
	}
	// Untouched fields stay put.
	if got.HeroPassLevel != 0 || got.Email != p.Email {
		t.Fatalf("sparse patch disturbed other fields: %+v", got)
	}
}

func TestBootstrapAssemblesView(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()
	p := f.playerID(t, "bootstrap")

	adv, err := f.advService.Start(ctx, p.ID, StartInput{Seed: "seed-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.subService.Submit(ctx, p.ID, SubmitInput{
		AdventureID: adv.ID.String(),
		KCID:        3,
		Sentence:    "He goes to school.",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	view, err := f.playerSvc.Bootstrap(ctx, p.ID)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if view.Player == nil || view.Player.ID != p.ID {
		t.Fatalf("player = %+v", view.Player)
	}
	if !view.HasAdventure || !view.NeedsDisplayName {
		t.Fatalf("flags = %v/%v, want true/true", view.HasAdventure, view.NeedsDisplayName)
	}
	if view.ActiveAdventure == nil || view.ActiveAdventure.ID != adv.ID {
		t.Fatalf("active adventure = %+v", view.ActiveAdventure)
	}
	if len(view.Mastery) != 1 || view.Mastery[0].KCID != 3 {
		t.Fatalf("mastery = %+v", view.Mastery)
	}
	if len(view.History) != 0 {
		t.Fatalf("history = %+v", view.History)
	}
}

func TestMasteryProjectionPadsUnseenKCs(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()
	p := f.playerID(t, "projection")

	if _, err := f.subService.Submit(ctx, p.ID, SubmitInput{
		KCID:       3,
		Sentence:   "He goes to school.",
		IsPractice: true,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	views, err := f.playerSvc.MasteryProjection(ctx, p.ID)
	if err != nil {
		t.Fatalf("MasteryProjection: %v", err)
	}
	if len(views) != MaxProjectedKC {
		t.Fatalf("len = %d, want %d", len(views), MaxProjectedKC)
	}
	for i, view := range views {
		if view.KCID != i+1 {
			t.Fatalf("views[%d].KCID = %d, want %d", i, view.KCID, i+1)
		}
	}
	if views[2].PKnow != 83 || views[2].Correct != 1 {
		t.Fatalf("practiced KC = %+v", views[2])
	}
	if views[0].PKnow != 50 || views[0].Correct != 0 || views[0].Incorrect != 0 {
		t.Fatalf("unseen KC = %+v", views[0])
	}
}

func TestAdventureStatsChecksOwnership(t *testing.T) {
	f := newGameFixture(t)
	ctx := context.Background()
	owner := f.playerID(t, "stats-owner")
	stranger := f.playerID(t, "stats-stranger")

	adv, err := f.advService.Start(ctx, owner.ID, StartInput{Seed: "seed-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.subService.Submit(ctx, owner.ID, SubmitInput{
		AdventureID: adv.ID.String(),
		KCID:        3,
		Sentence:    "He goes to school.",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rows, err := f.playerSvc.AdventureStats(ctx, owner.ID, adv.ID)
	if err != nil {
		t.Fatalf("AdventureStats: %v", err)
	}
	if len(rows) != 1 || rows[0].KCID != 3 {
		t.Fatalf("rows = %+v", rows)
	}

	if _, err := f.playerSvc.AdventureStats(ctx, stranger.ID, adv.ID); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("foreign stats error = %v, want not_found", err)
	}
}
