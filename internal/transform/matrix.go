package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the number of entries in a 4x4 matrix.
const Size = 16

// Matrix is a 4x4 row-major homogeneous transform. It is a value type: copies
// never alias, so a sample cannot be changed after it is captured.
type Matrix [Size]float64

// Identity returns the 4x4 identity matrix.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a pure translation by (x, y, z).
func Translation(x, y, z float64) Matrix {
	m := Identity()
	m[3] = x
	m[7] = y
	m[11] = z
	return m
}

// FromRows builds a matrix from four rows of four values.
func FromRows(rows [4][4]float64) Matrix {
	var m Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = rows[r][c]
		}
	}
	return m
}

// FromSlice builds a matrix from exactly 16 row-major values.
func FromSlice(values []float64) (Matrix, error) {
	var m Matrix
	if len(values) != Size {
		return m, fmt.Errorf("matrix needs %d values, got %d", Size, len(values))
	}
	copy(m[:], values)
	return m, nil
}

// At returns the entry at row r, column c.
func (m Matrix) At(r, c int) float64 {
	return m[r*4+c]
}

// Translation returns the translation column.
func (m Matrix) Translation() (x, y, z float64) {
	return m[3], m[7], m[11]
}

// String renders all 16 entries in row-major order.
func (m Matrix) String() string {
	parts := make([]string, Size)
	for i, v := range m {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
