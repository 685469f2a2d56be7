package staking

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/blockberries/stakeledger/ledger"
)

// mulDiv returns floor(a*b/d) and the remainder a*b mod d.
func mulDiv(a, b, d uint64) (quo, rem uint64, err error) {
	x, y, z := uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(d)
	q, overflow := new(uint256.Int).MulDivOverflow(x, y, z)
	if overflow || !q.IsUint64() {
		return 0, 0, ledger.ErrOverflow
	}
	r := new(uint256.Int).Mul(x, y)
	r.Mod(r, z)
	return q.Uint64(), r.Uint64(), nil
}

// bpsOf returns floor(amount*bps/10000).
func bpsOf(amount uint64, bps uint32) (uint64, error) {
	q, _, err := mulDiv(amount, uint64(bps), ledger.BpsDenominator)
	return q, err
}

// apportion splits total across weights with the largest remainder
// method. Every part gets floor(total*w/sum); the units left over go
// one each to the largest remainders, ties to the lower index. The
// parts always sum to total. A zero weight sum yields all zeros.
func apportion(total uint64, weights []uint64) ([]uint64, error) {
	parts := make([]uint64, len(weights))
	var sum uint64
	for _, w := range weights {
		var err error
		if sum, err = ledger.SafeAdd(sum, w); err != nil {
			return nil, err
		}
	}
	if sum == 0 || total == 0 {
		return parts, nil
	}
	rems := make([]uint64, len(weights))
	left := total
	for i, w := range weights {
		q, r, err := mulDiv(total, w, sum)
		if err != nil {
			return nil, err
		}
		parts[i], rems[i] = q, r
		left -= q
	}
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rems[order[a]] > rems[order[b]]
	})
	for _, i := range order {
		if left == 0 {
			break
		}
		parts[i]++
		left--
	}
	return parts, nil
}
