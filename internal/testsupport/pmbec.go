package testsupport

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const standardLetters = "ARNDCQEGHILKMFPSTWYV"

// SyntheticCovariance renders a symmetric positive-definite 20x20 covariance
// table in the pmbec.mat layout. Rows are built from low-rank residue profiles
// plus a diagonal term, so correlations span both signs.
func SyntheticCovariance() string {
	n := len(standardLetters)
	profiles := make([][3]float64, n)
	for i := range profiles {
		theta := 2 * math.Pi * float64(i) / float64(n)
		profiles[i] = [3]float64{math.Cos(theta), math.Sin(theta), 0.3 * math.Cos(3*theta)}
	}

	var b strings.Builder
	for _, letter := range standardLetters {
		b.WriteByte('\t')
		b.WriteRune(letter)
	}
	b.WriteByte('\n')
	for i := 0; i < n; i++ {
		b.WriteByte(standardLetters[i])
		for j := 0; j < n; j++ {
			var v float64
			for k := 0; k < 3; k++ {
				v += profiles[i][k] * profiles[j][k]
			}
			v *= 0.1
			if i == j {
				v += 0.02
			}
			fmt.Fprintf(&b, "\t%.9f", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteSyntheticPMBEC writes SyntheticCovariance into dir and returns the path.
func WriteSyntheticPMBEC(t testing.TB, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "pmbec.mat")
	if err := os.WriteFile(path, []byte(SyntheticCovariance()), 0o644); err != nil {
		t.Fatalf("write synthetic pmbec: %v", err)
	}
	return path
}

// PMBECPath locates the published PMBEC coefficient table, or skips the test
// when it is not available. TOPEOLOGY_PMBEC_PATH wins over the repository
// testdata copy.
func PMBECPath(t testing.TB) string {
	t.Helper()

	if path := strings.TrimSpace(os.Getenv("TOPEOLOGY_PMBEC_PATH")); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	_, file, _, ok := runtime.Caller(0)
	if ok {
		path := filepath.Join(filepath.Dir(file), "..", "pmbec", "testdata", "pmbec.mat")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("PMBEC coefficient table not available; set TOPEOLOGY_PMBEC_PATH")
	return ""
}
