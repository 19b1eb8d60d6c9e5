package lottery

import (
	"math"

	"github.com/holiman/uint256"
)

// mulDiv returns a*b/c with a 256-bit intermediate, saturating at MaxUint64.
func mulDiv(a, b, c uint64) uint64 {
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	product.Div(product, uint256.NewInt(c))
	if !product.IsUint64() {
		return math.MaxUint64
	}
	return product.Uint64()
}
