package rectify

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/s-elg/scannning-app/internal/geometry"
)

// Matrix is a 3x3 projective transform stored row-major. The last element
// is normalised to 1 by ComputeHomography.
type Matrix [9]float64

// ComputeHomography returns the transform mapping each src[i] onto dst[i].
//
// With h22 fixed to 1 each correspondence contributes two linear equations
//
//	x' = (h00 x + h01 y + h02) / (h20 x + h21 y + 1)
//	y' = (h10 x + h11 y + h12) / (h20 x + h21 y + 1)
//
// giving an 8x8 system that is solved by LU decomposition. A singular or
// ill-conditioned system is reported as ErrDegenerateQuadrilateral.
func ComputeHomography(src, dst [4]geometry.Point) (Matrix, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		r := 2 * i

		a.SetRow(r, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		b.SetVec(r, u)

		a.SetRow(r+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(r+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Matrix{}, fmt.Errorf("%w: homography system: %v", ErrDegenerateQuadrilateral, err)
	}

	var m Matrix
	for i := 0; i < 8; i++ {
		m[i] = h.AtVec(i)
	}
	m[8] = 1
	return m, nil
}

// Inverse returns the transform undoing m.
func (m Matrix) Inverse() (Matrix, error) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, m[:])); err != nil {
		return Matrix{}, fmt.Errorf("%w: inverse transform: %v", ErrDegenerateQuadrilateral, err)
	}

	var out Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	return out, nil
}

// Apply maps p through m. The second result is false when p maps to the
// line at infinity.
func (m Matrix) Apply(p geometry.Point) (geometry.Point, bool) {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w == 0 {
		return geometry.Point{}, false
	}
	return geometry.Point{
		X: (m[0]*p.X + m[1]*p.Y + m[2]) / w,
		Y: (m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}, true
}
