package compare

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"topeology/internal/services"
)

// Candidate is one input epitope, optionally with its wildtype sequence.
type Candidate struct {
	SampleID string `json:"sample"`
	Epitope  string `json:"epitope"`
	Wildtype string `json:"epitope_wt,omitempty"`
}

// Length is the epitope length used for the reference join.
func (c Candidate) Length() int { return len(c.Epitope) }

// LoadCandidates reads a candidate table from path. See ReadCandidates.
func LoadCandidates(path string) ([]Candidate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrDataUnavailable, "compare", "load candidates", fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	candidates, err := ReadCandidates(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return candidates, nil
}

// ReadCandidates parses a comma or tab separated table with a header naming
// sample (or sample_id), epitope, and optionally epitope_wt. The delimiter is
// taken from the header line.
func ReadCandidates(r io.Reader) ([]Candidate, error) {
	br := bufio.NewReader(r)
	reader := csv.NewReader(br)
	if tabSeparated(br) {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrDataUnavailable, "compare", "read candidates", "table is empty", nil)
		}
		return nil, services.Wrap(services.ErrDataUnavailable, "compare", "read candidates", "read header", err)
	}

	sampleCol, epitopeCol, wildtypeCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "sample", "sample_id":
			if sampleCol < 0 {
				sampleCol = i
			}
		case "epitope":
			epitopeCol = i
		case "epitope_wt":
			wildtypeCol = i
		}
	}
	var missing []string
	if sampleCol < 0 {
		missing = append(missing, "sample")
	}
	if epitopeCol < 0 {
		missing = append(missing, "epitope")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrDataUnavailable, "compare", "read candidates",
			fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")), nil)
	}

	var candidates []Candidate
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrDataUnavailable, "compare", "read candidates", "parse record", err)
		}
		c := Candidate{
			SampleID: field(record, sampleCol),
			Epitope:  strings.TrimSpace(field(record, epitopeCol)),
			Wildtype: strings.TrimSpace(field(record, wildtypeCol)),
		}
		if c.SampleID == "" && c.Epitope == "" {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// WriteCandidates renders candidates in the format ReadCandidates accepts.
func WriteCandidates(w io.Writer, candidates []Candidate) error {
	withWildtype := false
	for _, c := range candidates {
		if c.Wildtype != "" {
			withWildtype = true
			break
		}
	}
	cw := csv.NewWriter(w)
	header := []string{"sample", "epitope"}
	if withWildtype {
		header = append(header, "epitope_wt")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range candidates {
		row := []string{c.SampleID, c.Epitope}
		if withWildtype {
			row = append(row, c.Wildtype)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// tabSeparated reports whether the buffered header line uses tabs and no
// commas.
func tabSeparated(br *bufio.Reader) bool {
	head, _ := br.Peek(br.Size())
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.Contains(line, "\t") && !strings.Contains(line, ",")
}
