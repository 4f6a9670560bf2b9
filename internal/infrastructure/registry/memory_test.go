package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

func TestMemory_RevokeIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Revoke(ctx, "tok-1", domain.ReasonLogout, time.Hour); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := m.Revoke(ctx, "tok-1", domain.ReasonLogout, time.Hour); err != nil {
		t.Fatalf("second Revoke must be a no-op, got: %v", err)
	}

	revoked, err := m.IsRevoked(ctx, "tok-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got revoked=%v err=%v", revoked, err)
	}

	revoked, _ = m.IsRevoked(ctx, "tok-2")
	if revoked {
		t.Fatalf("unknown token reported revoked")
	}
}

func TestMemory_RevokeOnce_SingleWinner(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	wins := make(chan bool, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := m.RevokeOnce(ctx, "contested", domain.ReasonRotated, time.Hour)
			if err != nil {
				t.Errorf("RevokeOnce: %v", err)
				return
			}
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", winners)
	}
}

func TestMemory_UserWatermark(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, ok, _ := m.UserRevokedAt(ctx, 3); ok {
		t.Fatalf("unexpected watermark for fresh user")
	}

	at := time.Now().UTC()
	if err := m.RevokeUser(ctx, 3, at, time.Hour); err != nil {
		t.Fatalf("RevokeUser: %v", err)
	}

	mark, ok, err := m.UserRevokedAt(ctx, 3)
	if err != nil || !ok {
		t.Fatalf("expected watermark, got ok=%v err=%v", ok, err)
	}
	if !mark.Equal(at) {
		t.Fatalf("watermark mismatch: want %v, got %v", at, mark)
	}
}

func TestMemory_SweepExpired(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Revoke(ctx, "old", domain.ReasonRotated, time.Millisecond)
	_ = m.Revoke(ctx, "live", domain.ReasonRotated, time.Hour)
	_ = m.RevokeUser(ctx, 1, time.Now().UTC(), time.Millisecond)

	removed, err := m.SweepExpired(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}

	if revoked, _ := m.IsRevoked(ctx, "live"); !revoked {
		t.Fatalf("live entry swept prematurely")
	}
}

func TestMemory_EntryExpiry(t *testing.T) {
	m := NewMemory()
	m.now = func() time.Time { return time.Unix(1000, 0) }
	ctx := context.Background()

	_ = m.Revoke(ctx, "short", domain.ReasonLogout, time.Minute)

	if revoked, _ := m.IsRevoked(ctx, "short"); !revoked {
		t.Fatalf("entry should be live before expiry")
	}

	m.now = func() time.Time { return time.Unix(1000, 0).Add(2 * time.Minute) }
	if revoked, _ := m.IsRevoked(ctx, "short"); revoked {
		t.Fatalf("entry should expire with its token")
	}

	// An expired entry can be claimed again; the underlying token is dead
	// by expiry anyway.
	won, _ := m.RevokeOnce(ctx, "short", domain.ReasonRotated, time.Minute)
	if !won {
		t.Fatalf("expired entry should be reclaimable")
	}
}
