package gate

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Matrix is a dense 2x2 complex matrix, the operator of a single-qubit gate.
type Matrix [2][2]complex128

// Mul returns m×o.
func (m Matrix) Mul(o Matrix) Matrix {
	return Matrix{
		{m[0][0]*o[0][0] + m[0][1]*o[1][0], m[0][0]*o[0][1] + m[0][1]*o[1][1]},
		{m[1][0]*o[0][0] + m[1][1]*o[1][0], m[1][0]*o[0][1] + m[1][1]*o[1][1]},
	}
}

// Dagger returns the conjugate transpose of m.
func (m Matrix) Dagger() Matrix {
	return Matrix{
		{cmplx.Conj(m[0][0]), cmplx.Conj(m[1][0])},
		{cmplx.Conj(m[0][1]), cmplx.Conj(m[1][1])},
	}
}

// IsUnitary checks m×m† ≈ I within tol.
func (m Matrix) IsUnitary(tol float64) bool {
	p := m.Mul(m.Dagger())
	return cmplx.Abs(p[0][0]-1) < tol && cmplx.Abs(p[1][1]-1) < tol &&
		cmplx.Abs(p[0][1]) < tol && cmplx.Abs(p[1][0]) < tol
}

var (
	matI = Matrix{{1, 0}, {0, 1}}
	matX = Matrix{{0, 1}, {1, 0}}
	matY = Matrix{{0, -1i}, {1i, 0}}
	matZ = Matrix{{1, 0}, {0, -1}}
	matH = Matrix{
		{complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0)},
		{complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0)},
	}
	matS   = Matrix{{1, 0}, {0, 1i}}
	matSDG = Matrix{{1, 0}, {0, -1i}}
	matT   = Matrix{{1, 0}, {0, cmplx.Exp(1i * math.Pi / 4)}}
	matTDG = Matrix{{1, 0}, {0, cmplx.Exp(-1i * math.Pi / 4)}}
)

// Matrix returns the constant 2x2 unitary of a fixed single-qubit kind.
// Parametric kinds fail with ErrMissingParameter (use Rotation); multi-qubit
// kinds have no 2x2 matrix and fail with ErrUnsupportedGate.
func (k Kind) Matrix() (Matrix, error) {
	switch k {
	case I:
		return matI, nil
	case X:
		return matX, nil
	case Y:
		return matY, nil
	case Z:
		return matZ, nil
	case H:
		return matH, nil
	case S:
		return matS, nil
	case SDG:
		return matSDG, nil
	case T:
		return matT, nil
	case TDG:
		return matTDG, nil
	case RX, RY, RZ:
		return Matrix{}, fmt.Errorf("%w: %s requires an angle", ErrMissingParameter, k)
	default:
		return Matrix{}, fmt.Errorf("%w: %s has no single-qubit matrix", ErrUnsupportedGate, k)
	}
}

// Rotation returns the rotation matrix of a parametric kind. Any real angle
// is accepted; it is reduced mod 4π (the period of the half-angle matrices)
// to keep trigonometry accurate for large inputs.
func (k Kind) Rotation(theta float64) (Matrix, error) {
	theta = math.Mod(theta, 4*math.Pi)
	c := math.Cos(theta / 2)
	s := math.Sin(theta / 2)
	switch k {
	case RX:
		return Matrix{
			{complex(c, 0), complex(0, -s)},
			{complex(0, -s), complex(c, 0)},
		}, nil
	case RY:
		return Matrix{
			{complex(c, 0), complex(-s, 0)},
			{complex(s, 0), complex(c, 0)},
		}, nil
	case RZ:
		return Matrix{
			{cmplx.Exp(complex(0, -theta / 2)), 0},
			{0, cmplx.Exp(complex(0, theta / 2))},
		}, nil
	default:
		return Matrix{}, fmt.Errorf("%w: %s is not parametric", ErrUnsupportedGate, k)
	}
}

// Paulis returns the X, Y, Z matrices in that order; the depolarizing
// channel draws uniformly from these.
func Paulis() [3]Matrix {
	return [3]Matrix{matX, matY, matZ}
}
