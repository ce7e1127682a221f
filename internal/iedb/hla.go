package iedb

import (
	"fmt"
	"strings"
)

// Allele is a parsed HLA allele name.
type Allele struct {
	Gene    string
	Family  string
	Protein string
}

// String renders the canonical HLA-<gene>*<family>:<protein> form.
func (a Allele) String() string {
	return fmt.Sprintf("HLA-%s*%s:%s", a.Gene, a.Family, a.Protein)
}

// Compact renders the <gene><family><protein> form, e.g. A0201.
func (a Allele) Compact() string {
	return a.Gene + a.Family + a.Protein
}

// ParseAllele accepts names such as "HLA-A*02:01", "A*0201" or
// "HLA-B*57:01:01". Fields beyond the protein are dropped.
func ParseAllele(name string) (Allele, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "HLA-")
	s = strings.TrimPrefix(s, "HLA")

	var gene, rest string
	if star := strings.IndexByte(s, '*'); star >= 0 {
		gene, rest = s[:star], s[star+1:]
	} else {
		end := 0
		for end < len(s) && s[end] >= 'A' && s[end] <= 'Z' {
			end++
		}
		gene, rest = s[:end], s[end:]
	}
	if gene == "" || !alphanumeric(gene) {
		return Allele{}, fmt.Errorf("allele %q: missing gene", name)
	}

	var family, protein string
	if strings.Contains(rest, ":") {
		fields := strings.Split(rest, ":")
		family, protein = fields[0], fields[1]
	} else if len(rest) == 4 {
		family, protein = rest[:2], rest[2:]
	} else {
		return Allele{}, fmt.Errorf("allele %q: missing protein field", name)
	}
	if !digits(family) || !digits(protein) {
		return Allele{}, fmt.Errorf("allele %q: non-numeric allele fields", name)
	}

	return Allele{Gene: gene, Family: pad2(family), Protein: pad2(protein)}, nil
}

// NormalizeAllele returns the canonical form of name.
func NormalizeAllele(name string) (string, error) {
	a, err := ParseAllele(name)
	if err != nil {
		return "", err
	}
	return a.String(), nil
}

// CompactAllele returns the compact form of name.
func CompactAllele(name string) (string, error) {
	a, err := ParseAllele(name)
	if err != nil {
		return "", err
	}
	return a.Compact(), nil
}

// IsClassIAllele reports whether the raw IEDB allele value names one
// specific class I HLA allele written in canonical form.
func IsClassIAllele(raw string) bool {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "hla-d"), strings.HasPrefix(lower, "hla-e"):
		return false
	case !strings.Contains(lower, "hla"):
		return false
	case strings.Contains(lower, "undetermined"):
		return false
	case strings.Contains(lower, "class i"):
		return false
	}
	upper := strings.ToUpper(raw)
	normalized, err := NormalizeAllele(upper)
	return err == nil && normalized == upper
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func alphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
