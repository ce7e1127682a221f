package pmbec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"topeology/internal/services"
)

// Covariance holds the 20x20 PMBEC coefficients in canonical letter order.
type Covariance [standardCount][standardCount]float64

// At returns the coefficient for the residue pair, or false when either
// letter is not standard.
func (c *Covariance) At(a, b byte) (float64, bool) {
	if !IsStandard(a) || !IsStandard(b) {
		return 0, false
	}
	i, _ := Index(a)
	j, _ := Index(b)
	return c[i][j], true
}

// LoadCovariance reads the PMBEC coefficient table at path.
func LoadCovariance(path string) (Covariance, error) {
	if strings.TrimSpace(path) == "" {
		return Covariance{}, services.Wrap(services.ErrDataUnavailable, "pmbec", "load covariance", "PMBEC table path is not configured", nil)
	}
	file, err := os.Open(path)
	if err != nil {
		return Covariance{}, services.Wrap(services.ErrDataUnavailable, "pmbec", "load covariance", fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	cov, err := ReadCovariance(file)
	if err != nil {
		return Covariance{}, fmt.Errorf("%s: %w", path, err)
	}
	return cov, nil
}

// ReadCovariance parses the whitespace-separated coefficient table: a header
// row of residue letters followed by one row per residue, each starting with
// its letter. Header and row order are free; every standard letter must be
// present exactly once on both axes.
func ReadCovariance(r io.Reader) (Covariance, error) {
	var cov Covariance

	scanner := bufio.NewScanner(r)
	var header []int
	var seenRows [standardCount]bool
	rows := 0
	line := 0

	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		if header == nil {
			idx, err := parseHeader(fields)
			if err != nil {
				return Covariance{}, covarianceError(line, err.Error())
			}
			header = idx
			continue
		}

		if len(fields) != len(header)+1 {
			return Covariance{}, covarianceError(line, fmt.Sprintf("expected %d values, got %d", len(header), len(fields)-1))
		}
		row, err := standardIndex(fields[0])
		if err != nil {
			return Covariance{}, covarianceError(line, err.Error())
		}
		if seenRows[row] {
			return Covariance{}, covarianceError(line, fmt.Sprintf("duplicate row %s", fields[0]))
		}
		seenRows[row] = true
		rows++

		for k, raw := range fields[1:] {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Covariance{}, covarianceError(line, fmt.Sprintf("parse %q", raw))
			}
			cov[row][header[k]] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Covariance{}, services.Wrap(services.ErrDataUnavailable, "pmbec", "read covariance", "read table", err)
	}
	if header == nil {
		return Covariance{}, services.Wrap(services.ErrDataUnavailable, "pmbec", "read covariance", "table is empty", nil)
	}
	if rows != standardCount {
		var missing []string
		for i, ok := range seenRows {
			if !ok {
				missing = append(missing, string(StandardLetters[i]))
			}
		}
		return Covariance{}, services.Wrap(services.ErrDataUnavailable, "pmbec", "read covariance",
			fmt.Sprintf("missing rows for %s", strings.Join(missing, ",")), nil)
	}
	return cov, nil
}

func parseHeader(fields []string) ([]int, error) {
	if len(fields) != standardCount {
		return nil, fmt.Errorf("header lists %d residues, want %d", len(fields), standardCount)
	}
	idx := make([]int, len(fields))
	var seen [standardCount]bool
	for k, field := range fields {
		i, err := standardIndex(field)
		if err != nil {
			return nil, err
		}
		if seen[i] {
			return nil, fmt.Errorf("duplicate column %s", field)
		}
		seen[i] = true
		idx[k] = i
	}
	return idx, nil
}

func standardIndex(field string) (int, error) {
	if len(field) != 1 || !IsStandard(field[0]) {
		return 0, fmt.Errorf("unknown residue %q", field)
	}
	i, _ := Index(field[0])
	return i, nil
}

func covarianceError(line int, message string) error {
	return services.Wrap(services.ErrDataUnavailable, "pmbec", "read covariance", fmt.Sprintf("line %d: %s", line, message), nil)
}
