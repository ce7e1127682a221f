package pmbec

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"topeology/internal/services"
)

// Matrix is the quantized 24-letter substitution matrix. The zero value is
// not usable; construct one with Build or Load.
type Matrix struct {
	cells [alphabetSize][alphabetSize]int
	min   int
	max   int
	gap   int
}

// Load reads the coefficient table at path and builds the matrix from it.
func Load(path string) (*Matrix, error) {
	cov, err := LoadCovariance(path)
	if err != nil {
		return nil, err
	}
	return Build(cov)
}

// Build converts a covariance table into the integer substitution matrix.
// Each standard cell is round(100 * cov(i,j) / sqrt(cov(i,i) * cov(j,j))),
// rounding half away from zero. Cells touching a special letter are zero.
func Build(cov Covariance) (*Matrix, error) {
	n := standardCount
	if i, j, ok := asymmetry(cov); ok {
		return nil, services.Wrap(services.ErrDataUnavailable, "pmbec", "build matrix",
			fmt.Sprintf("covariance is not symmetric at %c/%c", StandardLetters[i], StandardLetters[j]), nil)
	}
	data := make([]float64, 0, n*n)
	inv := make([]float64, n)
	for i := 0; i < n; i++ {
		d := cov[i][i]
		if !(d > 0) || math.IsInf(d, 0) {
			return nil, services.Wrap(services.ErrDataUnavailable, "pmbec", "build matrix",
				fmt.Sprintf("variance of %c is %v; correlation undefined", StandardLetters[i], d), nil)
		}
		inv[i] = 1 / math.Sqrt(d)
		data = append(data, cov[i][:]...)
	}

	c := mat.NewDense(n, n, data)
	scale := mat.NewDiagDense(n, inv)
	var corr mat.Dense
	corr.Product(scale, c, scale)

	m := &Matrix{}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := corr.At(i, j) * Scale
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, services.Wrap(services.ErrDataUnavailable, "pmbec", "build matrix",
					fmt.Sprintf("coefficient %c/%c is not finite", StandardLetters[i], StandardLetters[j]), nil)
			}
			m.cells[i][j] = int(math.Round(v))
			m.cells[j][i] = m.cells[i][j]
		}
	}
	m.summarize()
	return m, nil
}

const symmetryTolerance = 1e-6

func asymmetry(cov Covariance) (int, int, bool) {
	for i := 0; i < standardCount; i++ {
		for j := i + 1; j < standardCount; j++ {
			if math.Abs(cov[i][j]-cov[j][i]) > symmetryTolerance {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func (m *Matrix) summarize() {
	m.min, m.max = m.cells[0][0], m.cells[0][0]
	for i := range m.cells {
		for _, v := range m.cells[i] {
			if v < m.min {
				m.min = v
			}
			if v > m.max {
				m.max = v
			}
		}
	}
	m.gap = m.min
	if m.gap < 0 {
		m.gap = -m.gap
	}
}

// Score returns the cell for a residue pair, ignoring case. The boolean is
// false when either letter is outside the alphabet.
func (m *Matrix) Score(a, b byte) (int, bool) {
	i, ok := Index(a)
	if !ok {
		return 0, false
	}
	j, ok := Index(b)
	if !ok {
		return 0, false
	}
	return m.cells[i][j], true
}

// At returns the cell at canonical positions i and j.
func (m *Matrix) At(i, j int) int {
	return m.cells[i][j]
}

// GapPenalty is the absolute value of the smallest cell.
func (m *Matrix) GapPenalty() int { return m.gap }

// Min returns the smallest cell, special letters included.
func (m *Matrix) Min() int { return m.min }

// Max returns the largest cell.
func (m *Matrix) Max() int { return m.max }

// Letters returns the canonical alphabet in matrix order.
func (m *Matrix) Letters() string { return Alphabet }

// Flatten returns the cells in row-major canonical order.
func (m *Matrix) Flatten() []int {
	flat := make([]int, 0, FlatSize)
	for i := range m.cells {
		flat = append(flat, m.cells[i][:]...)
	}
	return flat
}

// Rows returns a copy of the matrix as nested slices.
func (m *Matrix) Rows() [][]int {
	rows := make([][]int, alphabetSize)
	for i := range m.cells {
		rows[i] = append([]int(nil), m.cells[i][:]...)
	}
	return rows
}

// String renders the matrix as a whitespace aligned grid.
func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteString("   ")
	for i := 0; i < alphabetSize; i++ {
		fmt.Fprintf(&b, "%5c", Alphabet[i])
	}
	b.WriteByte('\n')
	for i := range m.cells {
		fmt.Fprintf(&b, "%-3c", Alphabet[i])
		for _, v := range m.cells[i] {
			fmt.Fprintf(&b, "%5d", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
