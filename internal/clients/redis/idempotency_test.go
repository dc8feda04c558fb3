package redis

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGuardClaimsOnce(t *testing.T) {
	guard := NewMemoryGuard()
	ctx := context.Background()

	claimed, err := guard.Claim(ctx, "finish:adv1:tok1", time.Minute)
	if err != nil || !claimed {
		t.Fatalf("first claim = %v, %v", claimed, err)
	}

	claimed, err = guard.Claim(ctx, "finish:adv1:tok1", time.Minute)
	if err != nil || claimed {
		t.Fatalf("replay claim = %v, %v; want false", claimed, err)
	}

	// A different token is an independent claim.
	claimed, err = guard.Claim(ctx, "finish:adv1:tok2", time.Minute)
	if err != nil || !claimed {
		t.Fatalf("independent claim = %v, %v", claimed, err)
	}
}

func TestMemoryGuardClaimExpires(t *testing.T) {
	guard := NewMemoryGuard()
	now := time.Now()
	guard.now = func() time.Time { return now }
	ctx := context.Background()

	if claimed, _ := guard.Claim(ctx, "k", time.Minute); !claimed {
		t.Fatal("first claim must succeed")
	}
	if claimed, _ := guard.Claim(ctx, "k", time.Minute); claimed {
		t.Fatal("claim must hold inside the window")
	}

	now = now.Add(61 * time.Second)
	if claimed, _ := guard.Claim(ctx, "k", time.Minute); !claimed {
		t.Fatal("expired claim must be reclaimable")
	}
}
