// Package ownership apportions an integer quantity across the owners of a
// task so that every share is an integer and the shares sum exactly to the
// total.
package ownership

import "errors"

var (
	ErrNoOwners      = errors.New("ownership: at least one owner is required")
	ErrNegativeTotal = errors.New("ownership: total must not be negative")
)

// Share is one owner's integer portion of a split quantity.
type Share struct {
	OwnerID int64
	Amount  int64
}

// Split divides total among owners in list order. Every owner receives
// floor(total/n) and the first owner also takes the whole remainder.
// Repeated owner ids collapse onto their first position.
func Split(total int64, owners []int64) ([]Share, error) {
	if total < 0 {
		return nil, ErrNegativeTotal
	}
	unique := dedupe(owners)
	if len(unique) == 0 {
		return nil, ErrNoOwners
	}

	n := int64(len(unique))
	base := total / n
	remainder := total % n

	shares := make([]Share, len(unique))
	for i, id := range unique {
		shares[i] = Share{OwnerID: id, Amount: base}
	}
	shares[0].Amount += remainder
	return shares, nil
}

// SplitPercentages splits 100 percentage points across owners.
func SplitPercentages(owners []int64) ([]Share, error) {
	return Split(100, owners)
}

// Sum adds every share amount.
func Sum(shares []Share) int64 {
	var total int64
	for _, s := range shares {
		total += s.Amount
	}
	return total
}

// ToMap indexes shares by owner.
func ToMap(shares []Share) map[int64]int64 {
	out := make(map[int64]int64, len(shares))
	for _, s := range shares {
		out[s.OwnerID] = s.Amount
	}
	return out
}

// Weight converts a share percentage into the [0,1] weight used when a
// task contributes to several owners' scores.
func Weight(sharePercentage int) float64 {
	if sharePercentage <= 0 {
		return 0
	}
	if sharePercentage >= 100 {
		return 1
	}
	return float64(sharePercentage) / 100
}

func dedupe(owners []int64) []int64 {
	seen := make(map[int64]struct{}, len(owners))
	out := make([]int64, 0, len(owners))
	for _, id := range owners {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
