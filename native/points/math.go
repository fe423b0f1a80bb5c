package points

import (
	"math/big"

	"github.com/holiman/uint256"
)

func mulPoints(a, b uint64) (uint64, error) {
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || !product.IsUint64() {
		return 0, ErrPointsOverflow
	}
	return product.Uint64(), nil
}

func addPoints(a, b uint64) (uint64, error) {
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || !sum.IsUint64() {
		return 0, ErrPointsOverflow
	}
	return sum.Uint64(), nil
}

// ValuePoints converts a value amount into points using the multiplier, e.g.
// the subscription bonus of price*2.
func ValuePoints(amount *big.Int, multiplier uint64) (uint64, error) {
	if amount == nil || amount.Sign() < 0 {
		return 0, ErrInvalidAmount
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return 0, ErrPointsOverflow
	}
	product, overflow := new(uint256.Int).MulOverflow(value, uint256.NewInt(multiplier))
	if overflow || !product.IsUint64() {
		return 0, ErrPointsOverflow
	}
	return product.Uint64(), nil
}
