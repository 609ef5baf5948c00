package codec

import "fmt"

// matrix is a dense row-major matrix over GF(2^8).
type matrix struct {
	rows, cols int
	data       []byte
}

func newMatrix(rows, cols int) *matrix {
	return &matrix{rows: rows, cols: cols, data: make([]byte, rows*cols)}
}

func (m *matrix) at(r, c int) byte      { return m.data[r*m.cols+c] }
func (m *matrix) set(r, c int, v byte)  { m.data[r*m.cols+c] = v }

func (m *matrix) mulVec(v []byte) []byte {
	if len(v) != m.cols {
		panic("codec: matrix/vector dimension mismatch")
	}
	out := make([]byte, m.rows)
	for r := 0; r < m.rows; r++ {
		var acc byte
		base := r * m.cols
		for c := 0; c < m.cols; c++ {
			acc = gfAdd(acc, gfMul(m.data[base+c], v[c]))
		}
		out[r] = acc
	}
	return out
}

// mul computes m * other over GF(2^8).
func (m *matrix) mul(other *matrix) *matrix {
	if m.cols != other.rows {
		panic("codec: matrix/matrix dimension mismatch")
	}
	out := newMatrix(m.rows, other.cols)
	for r := 0; r < m.rows; r++ {
		for k := 0; k < m.cols; k++ {
			a := m.at(r, k)
			if a == 0 {
				continue
			}
			for c := 0; c < other.cols; c++ {
				b := other.at(k, c)
				if b == 0 {
					continue
				}
				out.set(r, c, gfAdd(out.at(r, c), gfMul(a, b)))
			}
		}
	}
	return out
}

// selectRows returns a new matrix containing the given rows, in order.
func (m *matrix) selectRows(rowIdx []int) *matrix {
	out := newMatrix(len(rowIdx), m.cols)
	for i, r := range rowIdx {
		copy(out.data[i*m.cols:(i+1)*m.cols], m.data[r*m.cols:(r+1)*m.cols])
	}
	return out
}

// invert computes the matrix inverse via Gauss-Jordan elimination over
// GF(2^8). m must be square. Returns an error if m is singular.
func (m *matrix) invert() (*matrix, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("codec: invert requires a square matrix, got %dx%d", m.rows, m.cols)
	}
	n := m.rows

	// Augmented [m | I]
	aug := newMatrix(n, 2*n)
	for r := 0; r < n; r++ {
		copy(aug.data[r*2*n:r*2*n+n], m.data[r*n:(r+1)*n])
		aug.set(r, n+r, 1)
	}

	for col := 0; col < n; col++ {
		// Find a pivot row with a non-zero entry in this column.
		pivot := -1
		for r := col; r < n; r++ {
			if aug.at(r, col) != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, fmt.Errorf("codec: matrix is singular")
		}
		if pivot != col {
			swapRows(aug, pivot, col)
		}

		inv := gfInv(aug.at(col, col))
		if inv != 1 {
			scaleRow(aug, col, inv)
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug.at(r, col)
			if factor == 0 {
				continue
			}
			addScaledRow(aug, r, col, factor)
		}
	}

	out := newMatrix(n, n)
	for r := 0; r < n; r++ {
		copy(out.data[r*n:(r+1)*n], aug.data[r*2*n+n:r*2*n+2*n])
	}
	return out, nil
}

func swapRows(m *matrix, a, b int) {
	rowA := m.data[a*m.cols : (a+1)*m.cols]
	rowB := m.data[b*m.cols : (b+1)*m.cols]
	for i := range rowA {
		rowA[i], rowB[i] = rowB[i], rowA[i]
	}
}

func scaleRow(m *matrix, r int, factor byte) {
	base := r * m.cols
	for c := 0; c < m.cols; c++ {
		m.data[base+c] = gfMul(m.data[base+c], factor)
	}
}

func addScaledRow(m *matrix, dst, src int, factor byte) {
	dstBase := dst * m.cols
	srcBase := src * m.cols
	for c := 0; c < m.cols; c++ {
		m.data[dstBase+c] = gfAdd(m.data[dstBase+c], gfMul(m.data[srcBase+c], factor))
	}
}
