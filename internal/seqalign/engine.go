package seqalign

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"topeology/internal/pmbec"
	"topeology/internal/services"
)

var (
	// ErrNotInitialized is returned when scoring before Init.
	ErrNotInitialized = errors.New("seqalign: engine not initialized")
	// ErrMatrixShape is returned when the flattened matrix is not 24x24.
	ErrMatrixShape = errors.New("seqalign: matrix must have 576 cells")
	// ErrNegativeGap is returned for a gap penalty below zero.
	ErrNegativeGap = errors.New("seqalign: gap penalty must be non-negative")
	// ErrBatchShape is returned when batch inputs differ in length.
	ErrBatchShape = errors.New("seqalign: batch inputs differ in length")
)

const width = 24

// Engine aligns sequences against its initialized matrix. It is safe for
// concurrent use once Init has returned.
type Engine struct {
	mu      sync.RWMutex
	cells   []int
	gap     int
	ready   bool
	workers int
}

// New returns an uninitialized engine. workers bounds ScoreBatch
// concurrency; 0 uses GOMAXPROCS.
func New(workers int) *Engine {
	return &Engine{workers: workers}
}

// Init installs the matrix. It may be called again to replace it.
func (e *Engine) Init(gapPenalty int, flatMatrix []int) error {
	if len(flatMatrix) != width*width {
		return fmt.Errorf("%w: got %d", ErrMatrixShape, len(flatMatrix))
	}
	if gapPenalty < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeGap, gapPenalty)
	}
	cells := append([]int(nil), flatMatrix...)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cells = cells
	e.gap = gapPenalty
	e.ready = true
	return nil
}

// Score returns the best local-alignment score of a and b.
func (e *Engine) Score(a, b string) (int, error) {
	cells, gap, err := e.snapshot()
	if err != nil {
		return 0, err
	}
	ia, err := encode(a)
	if err != nil {
		return 0, err
	}
	ib, err := encode(b)
	if err != nil {
		return 0, err
	}
	return align(cells, gap, ia, ib), nil
}

// ScoreBatch scores a[i] against b[i] for every i, spreading pairs over the
// engine's workers. The first encoding error (by index) is returned.
func (e *Engine) ScoreBatch(a, b []string) ([]int, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d and %d", ErrBatchShape, len(a), len(b))
	}
	cells, gap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	n := len(a)
	out := make([]int, n)
	errs := make([]error, n)
	workers := e.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < n; i += workers {
				ia, err := encode(a[i])
				if err != nil {
					errs[i] = err
					continue
				}
				ib, err := encode(b[i])
				if err != nil {
					errs[i] = err
					continue
				}
				out[i] = align(cells, gap, ia, ib)
			}
		}(w)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
	}
	return out, nil
}

func (e *Engine) snapshot() ([]int, int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.ready {
		return nil, 0, ErrNotInitialized
	}
	return e.cells, e.gap, nil
}

func encode(seq string) ([]uint8, error) {
	out := make([]uint8, len(seq))
	for i := 0; i < len(seq); i++ {
		idx, ok := pmbec.Index(seq[i])
		if !ok {
			return nil, services.Wrap(services.ErrInvalidSequence, "seqalign", "encode",
				fmt.Sprintf("residue %q in %q is outside the alphabet", seq[i], seq), nil)
		}
		out[i] = uint8(idx)
	}
	return out, nil
}

// align fills the local-alignment matrix column by column over b, keeping a
// single row of scores for a plus the diagonal carried in a register.
func align(cells []int, gap int, a, b []uint8) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	col := make([]int, len(a)+1)
	best := 0
	for _, rb := range b {
		diag := 0
		left := 0
		for i, ra := range a {
			up := col[i+1]
			h := diag + cells[int(ra)*width+int(rb)]
			if v := up - gap; v > h {
				h = v
			}
			if v := left - gap; v > h {
				h = v
			}
			if h < 0 {
				h = 0
			}
			diag = up
			left = h
			col[i+1] = h
			if h > best {
				best = h
			}
		}
	}
	return best
}
