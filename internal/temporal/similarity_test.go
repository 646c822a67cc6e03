package temporal

import (
	"context"
	"errors"
	"testing"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

func TestDTWIdentical(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 1, 2, 5, 3, 2)
	d, err := DynamicTimeWarping(context.Background(), a, a)
	if err != nil {
		t.Fatal(err)
	}
	if d != 0 {
		t.Fatalf("self distance must be 0, got %v", d)
	}
}

func TestDTWShifted(t *testing.T) {
	// the same shape shifted in time warps to zero cost
	a := floatSeq(t, InterpLinear, true, true, 1, 1, 2, 5, 3, 2)
	b := floatSeq(t, InterpLinear, true, true, 4, 1, 5, 5, 6, 2)
	d, err := DynamicTimeWarping(context.Background(), a, b)
	if err != nil {
		t.Fatal(err)
	}
	if d != 0 {
		t.Fatalf("warped identical shapes: %v", d)
	}
}

func TestFrechetMonotone(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 0, 2, 0, 3, 0)
	b := floatSeq(t, InterpLinear, true, true, 1, 3, 2, 3, 3, 3)
	d, err := FrechetDistance(context.Background(), a, b)
	if err != nil {
		t.Fatal(err)
	}
	if d != 3 {
		t.Fatalf("constant offset 3: %v", d)
	}
	self, err := FrechetDistance(context.Background(), a, a)
	if err != nil || self != 0 {
		t.Fatalf("self frechet: %v %v", self, err)
	}
}

func TestSimilarityCancellation(t *testing.T) {
	a := floatSeq(t, InterpLinear, true, true, 1, 1, 2, 5, 3, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DynamicTimeWarping(ctx, a, a); !errors.Is(err, terrors.ErrCancelled) {
		t.Fatalf("cancelled dtw: %v", err)
	}
	if _, err := FrechetDistance(ctx, a, a); !errors.Is(err, terrors.ErrCancelled) {
		t.Fatalf("cancelled frechet: %v", err)
	}
}
