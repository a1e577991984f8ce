package docpipe

// Matrix is a 2D affine transform [a b c d e f] in PDF row-vector form:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
//
// It carries only what the content-stream interpreter needs: composition,
// translation and point mapping.
type Matrix [6]float64

// Identity is the neutral transform. Matrix is a value type, so the
// package-level value is never mutated by callers.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Multiply returns m × n (apply m first, then n).
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Translate returns translation(tx, ty) × m, the effect of a Td operator.
func (m Matrix) Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}.Multiply(m)
}

// Apply maps the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Origin is Apply(0, 0).
func (m Matrix) Origin() (float64, float64) {
	return m[4], m[5]
}
