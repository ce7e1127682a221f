package pmbec

// Canonical residue ordering shared by the matrix, its flattened form, and
// every alignment engine.
const (
	StandardLetters = "ARNDCQEGHILKMFPSTWYV"
	SpecialLetters  = "BZX*"
	Alphabet        = StandardLetters + SpecialLetters
)

// Scale multiplies correlations before rounding to integer matrix cells.
const Scale = 100

const (
	standardCount = len(StandardLetters)
	alphabetSize  = len(Alphabet)
)

// FlatSize is the number of cells in a flattened matrix.
const FlatSize = alphabetSize * alphabetSize

var letterIndex = buildLetterIndex()

func buildLetterIndex() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < alphabetSize; i++ {
		c := Alphabet[i]
		idx[c] = int8(i)
		if c >= 'A' && c <= 'Z' {
			idx[c+('a'-'A')] = int8(i)
		}
	}
	return idx
}

// Index returns the canonical position of letter, ignoring case.
func Index(letter byte) (int, bool) {
	i := letterIndex[letter]
	if i < 0 {
		return 0, false
	}
	return int(i), true
}

// IsStandard reports whether letter is one of the 20 standard residues.
// Lowercase letters are not standard.
func IsStandard(letter byte) bool {
	i := letterIndex[letter]
	return i >= 0 && int(i) < standardCount && letter >= 'A' && letter <= 'Z'
}
