package compare

import (
	"fmt"
	"math/rand"

	"topeology/internal/pmbec"
)

// GenerateCandidates returns n random standard-residue candidates whose
// lengths are drawn from lengths and whose sample IDs are drawn from 000-099.
func GenerateCandidates(rng *rand.Rand, n int, lengths []int) ([]Candidate, error) {
	if len(lengths) == 0 {
		return nil, fmt.Errorf("generate candidates: no epitope lengths")
	}
	for _, l := range lengths {
		if l <= 0 {
			return nil, fmt.Errorf("generate candidates: invalid length %d", l)
		}
	}
	out := make([]Candidate, n)
	for i := range out {
		size := lengths[rng.Intn(len(lengths))]
		seq := make([]byte, size)
		for j := range seq {
			seq[j] = pmbec.StandardLetters[rng.Intn(len(pmbec.StandardLetters))]
		}
		out[i] = Candidate{
			SampleID: fmt.Sprintf("%03d", rng.Intn(100)),
			Epitope:  string(seq),
		}
	}
	return out, nil
}
