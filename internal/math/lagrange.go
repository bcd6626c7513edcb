package math

import "math/big"

// LagrangeCoefficient returns λ_i(S) = Π_{j∈S, j≠i} j/(j−i) mod order, the
// weight that maps the share at index i to an additive share of f(0).
func LagrangeCoefficient(indices []int, i int, order *big.Int) (*big.Int, error) {
	if order == nil || order.Sign() <= 0 {
		return nil, ErrInvalidModulus
	}
	if err := validateIndexSet(indices, order); err != nil {
		return nil, err
	}

	member := false
	num := big.NewInt(1)
	den := big.NewInt(1)
	xi := big.NewInt(int64(i))

	for _, j := range indices {
		if j == i {
			member = true
			continue
		}
		xj := big.NewInt(int64(j))
		num = ModMul(num, xj, order)
		den = ModMul(den, ModSub(xj, xi, order), order)
	}
	if !member {
		return nil, ErrIndexNotInSet
	}

	denInv := ModInverse(den, order)
	if denInv == nil {
		// Two indices collide modulo the order.
		return nil, ErrDuplicateIndex
	}

	return ModMul(num, denInv, order), nil
}

// LagrangeCoefficients computes λ_i(S) for every member of S.
func LagrangeCoefficients(indices []int, order *big.Int) (map[int]*big.Int, error) {
	out := make(map[int]*big.Int, len(indices))
	for _, i := range indices {
		l, err := LagrangeCoefficient(indices, i, order)
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}

func validateIndexSet(indices []int, order *big.Int) error {
	if len(indices) == 0 {
		return ErrEmptyIndexSet
	}
	seen := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx <= 0 || Mod(big.NewInt(int64(idx)), order).Sign() == 0 {
			return ErrInvalidIndex
		}
		if _, ok := seen[idx]; ok {
			return ErrDuplicateIndex
		}
		seen[idx] = struct{}{}
	}
	return nil
}
