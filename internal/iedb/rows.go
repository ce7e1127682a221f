package iedb

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"topeology/internal/services"
)

// IEDB T-cell export column names.
const (
	ColumnSequence           = "Epitope Linear Sequence"
	ColumnSourceOrganism     = "Epitope Source Organism Name"
	ColumnSourceMolecule     = "Epitope Source Molecule Name"
	ColumnHostOrganism       = "Host Organism Name"
	ColumnQualitativeMeasure = "Qualitative Measure"
	ColumnAllele             = "MHC Allele Name"
)

var requiredColumns = []string{
	ColumnSequence,
	ColumnSourceOrganism,
	ColumnHostOrganism,
	ColumnQualitativeMeasure,
}

var defaultColumns = append(append([]string{}, requiredColumns...), ColumnAllele, ColumnSourceMolecule)

// Row is one assay line keyed by column name. Absent columns read as "".
type Row map[string]string

// Get returns the value of column, or "" when it is missing.
func (r Row) Get(column string) string {
	return r[column]
}

// Sequence returns the epitope linear sequence.
func (r Row) Sequence() string { return r[ColumnSequence] }

// LoadRows reads an IEDB export from path. See ReadRows.
func LoadRows(path string, columns ...string) ([]Row, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrDataUnavailable, "iedb", "load rows", "IEDB export path is not configured", nil)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrDataUnavailable, "iedb", "load rows", fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	rows, err := ReadRows(file, columns...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadRows decodes an ISO-8859-1 IEDB T-cell CSV export with a single header
// row. Only the required columns, the allele and source molecule columns,
// and any extra columns named are retained. Leading spaces in fields are
// trimmed.
func ReadRows(r io.Reader, columns ...string) ([]Row, error) {
	reader := newReader(r)
	index, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]int)
	for _, col := range append(append([]string{}, defaultColumns...), columns...) {
		if i, ok := index[col]; ok {
			wanted[col] = i
		}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrDataUnavailable, "iedb", "read rows", "parse record", err)
		}
		row := make(Row, len(wanted))
		for col, i := range wanted {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CheckExport reads only the header of the export at path and reports the
// column names when every required column is present.
func CheckExport(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrDataUnavailable, "iedb", "check export", fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	reader := newReader(file)
	index, err := readHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	return reader
}

// readHeader maps column names to their first index and rejects headers
// missing a required column.
func readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrDataUnavailable, "iedb", "read rows", "export is empty", nil)
		}
		return nil, services.Wrap(services.ErrDataUnavailable, "iedb", "read rows", "read header", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrDataUnavailable, "iedb", "read rows",
			fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")), nil)
	}
	return index, nil
}
