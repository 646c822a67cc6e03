package temporal

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// Similarity measures between two temporals, computed over their instant
// samples. Both run in O(n*m) and check for cancellation once per outer
// row, returning ErrCancelled when the context is done.

// DynamicTimeWarping returns the DTW distance between the sample series of
// two temporals, using the base type's metric as local cost.
func DynamicTimeWarping(ctx context.Context, a, b Temporal) (float64, error) {
	if err := checkSameBase(a, b); err != nil {
		return 0, err
	}
	sa, sb := a.Instants(), b.Instants()
	n, m := len(sa), len(sb)

	inf := math.Inf(1)
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		prev[j] = inf
	}
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("%w: dtw row %d", terrors.ErrCancelled, i)
		}
		curr[0] = inf
		for j := 1; j <= m; j++ {
			cost := sa[i-1].Val.Distance(sb[j-1].Val)
			best := prev[j-1]
			if prev[j] < best {
				best = prev[j]
			}
			if curr[j-1] < best {
				best = curr[j-1]
			}
			if i == 1 && j == 1 {
				best = 0
			}
			curr[j] = cost + best
		}
		prev, curr = curr, prev
	}
	return prev[m], nil
}

// FrechetDistance returns the discrete Frechet distance between the sample
// series of two temporals.
func FrechetDistance(ctx context.Context, a, b Temporal) (float64, error) {
	if err := checkSameBase(a, b); err != nil {
		return 0, err
	}
	sa, sb := a.Instants(), b.Instants()
	n, m := len(sa), len(sb)

	inf := math.Inf(1)
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = inf
	}
	prev[0] = 0
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("%w: frechet row %d", terrors.ErrCancelled, i)
		}
		curr[0] = inf
		for j := 1; j <= m; j++ {
			cost := sa[i-1].Val.Distance(sb[j-1].Val)
			best := prev[j-1]
			if prev[j] < best {
				best = prev[j]
			}
			if curr[j-1] < best {
				best = curr[j-1]
			}
			if i == 1 && j == 1 {
				best = 0
			}
			if cost > best {
				curr[j] = cost
			} else {
				curr[j] = best
			}
		}
		prev, curr = curr, prev
	}
	return prev[m], nil
}
