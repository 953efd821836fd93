// Package linalg computes exact null spaces of integer matrices and the
// repetition vector of a dataflow topology matrix.
package linalg

import (
	"fmt"
	"math/big"

	"github.com/kbukum/dataflow/errors"
)

// Matrix is a dense integer matrix stored row-major.
type Matrix [][]int64

// Dims returns the number of rows and columns. A matrix with no rows
// reports cols as given by the caller through NewMatrix.
func (m Matrix) Dims() (rows, cols int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// NewMatrix allocates a zero matrix.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]int64, cols)
	}
	return m
}

// NullSpace returns a basis of {x : m·x = 0} over the rationals. cols is
// needed when m has no rows.
func NullSpace(m Matrix, cols int) ([][]*big.Rat, error) {
	for i, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("linalg: row %d has %d columns, want %d", i, len(row), cols)
		}
	}

	a := make([][]*big.Rat, len(m))
	for i, row := range m {
		a[i] = make([]*big.Rat, cols)
		for j, v := range row {
			a[i][j] = new(big.Rat).SetInt64(v)
		}
	}

	pivots := rref(a, cols)

	isPivot := make([]bool, cols)
	for _, p := range pivots {
		isPivot[p] = true
	}

	var basis [][]*big.Rat
	for free := 0; free < cols; free++ {
		if isPivot[free] {
			continue
		}
		v := make([]*big.Rat, cols)
		for j := range v {
			v[j] = new(big.Rat)
		}
		v[free].SetInt64(1)
		for r, p := range pivots {
			v[p].Neg(a[r][free])
		}
		basis = append(basis, v)
	}
	return basis, nil
}

// rref reduces a in place to reduced row echelon form and returns the pivot
// column of each non-zero row.
func rref(a [][]*big.Rat, cols int) []int {
	var pivots []int
	row := 0
	tmp := new(big.Rat)
	for col := 0; col < cols && row < len(a); col++ {
		sel := -1
		for r := row; r < len(a); r++ {
			if a[r][col].Sign() != 0 {
				sel = r
				break
			}
		}
		if sel < 0 {
			continue
		}
		a[row], a[sel] = a[sel], a[row]

		inv := new(big.Rat).Inv(a[row][col])
		for j := col; j < cols; j++ {
			a[row][j].Mul(a[row][j], inv)
		}

		for r := range a {
			if r == row || a[r][col].Sign() == 0 {
				continue
			}
			f := new(big.Rat).Set(a[r][col])
			for j := col; j < cols; j++ {
				tmp.Mul(f, a[row][j])
				a[r][j].Sub(a[r][j], tmp)
			}
		}
		pivots = append(pivots, col)
		row++
	}
	return pivots
}

// RepetitionVector returns the minimal positive integer vector q with
// m·q = 0. The null space must be one-dimensional; otherwise the rates
// are inconsistent and NOT_SCHEDULABLE is returned.
func RepetitionVector(m Matrix, cols int) ([]int, error) {
	basis, err := NullSpace(m, cols)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if len(basis) != 1 {
		return nil, errors.NotSchedulable(len(basis))
	}
	v := basis[0]

	// Clear denominators.
	l := big.NewInt(1)
	g := new(big.Int)
	for _, x := range v {
		d := x.Denom()
		g.GCD(nil, nil, l, d)
		l.Div(l, g).Mul(l, d)
	}
	ints := make([]*big.Int, len(v))
	for i, x := range v {
		n := new(big.Int).Mul(x.Num(), l)
		ints[i] = n.Div(n, x.Denom())
	}

	// Reduce to the smallest representative.
	div := new(big.Int)
	for _, x := range ints {
		div.GCD(nil, nil, div, new(big.Int).Abs(x))
	}
	if div.Sign() == 0 {
		return nil, errors.NotSchedulable(1).WithDetail("reason", "null vector is zero")
	}

	negate := ints[0].Sign() < 0
	q := make([]int, len(ints))
	for i, x := range ints {
		x.Quo(x, div)
		if negate {
			x.Neg(x)
		}
		if x.Sign() <= 0 {
			return nil, errors.NotSchedulable(1).
				WithDetail("reason", "repetition vector is not strictly positive")
		}
		if !x.IsInt64() || x.Int64() > int64(maxInt) {
			return nil, errors.NotSchedulable(1).
				WithDetail("reason", fmt.Sprintf("repetition count %s overflows", x))
		}
		q[i] = int(x.Int64())
	}
	return q, nil
}

const maxInt = int(^uint(0) >> 1)
