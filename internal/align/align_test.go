package align_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"testing"

	"topeology/internal/align"
	"topeology/internal/config"
	"topeology/internal/pmbec"
	"topeology/internal/seqalign"
	"topeology/internal/services"
	"topeology/internal/testsupport"
)

var scenarioReferences = []string{
	"DPRRRSRNL",
	"GLDRNSGNY",
	"IMNRRKRSV",
	"KPNRNGGGY",
	"KTDNNNSNF",
	"LLHDRQHSI",
	"SLKKNSRSL",
	"EFKEFAAGRR",
}

func syntheticMatrix(t *testing.T) *pmbec.Matrix {
	t.Helper()
	cov, err := pmbec.ReadCovariance(strings.NewReader(testsupport.SyntheticCovariance()))
	if err != nil {
		t.Fatalf("ReadCovariance: %v", err)
	}
	m, err := pmbec.Build(cov)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func nativeScorer(t *testing.T, m *pmbec.Matrix) *align.NativeScorer {
	t.Helper()
	s, err := align.NewNativeScorer(m, seqalign.New(2))
	if err != nil {
		t.Fatalf("NewNativeScorer: %v", err)
	}
	return s
}

func TestTrim(t *testing.T) {
	cases := map[string]string{
		"AAALPGKCGV": "ALPGKCG",
		"ABC":        "",
		"ABCD":       "C",
	}
	for input, want := range cases {
		got, err := align.Trim(input)
		if err != nil || got != want {
			t.Fatalf("Trim(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	for _, short := range []string{"", "A", "AB"} {
		if _, err := align.Trim(short); !errors.Is(err, services.ErrInvalidSequence) {
			t.Fatalf("Trim(%q): expected ErrInvalidSequence, got %v", short, err)
		}
	}
}

func TestPrepareRejectsUnknownResidues(t *testing.T) {
	for _, seq := range []string{"AAJLPGKCGV", "AAALPG-CGV", "AAALPGKCG1"} {
		if _, err := align.Prepare(seq); !errors.Is(err, services.ErrInvalidSequence) {
			t.Fatalf("Prepare(%q): expected ErrInvalidSequence, got %v", seq, err)
		}
	}
	got, err := align.Prepare("aaBZX*v")
	if err != nil || got != "BZX*" {
		t.Fatalf("Prepare(aaBZX*v) = %q, %v", got, err)
	}
}

func TestPortableSelfScore(t *testing.T) {
	s := align.NewPortableScorer(syntheticMatrix(t), 1)
	raw, err := s.RawScore("AAALPGKCGV", "AAALPGKCGV")
	if err != nil {
		t.Fatalf("RawScore: %v", err)
	}
	if raw != 7*pmbec.Scale {
		t.Fatalf("RawScore = %d, want %d", raw, 7*pmbec.Scale)
	}
	score, _ := s.Score("AAALPGKCGV", "AAALPGKCGV")
	if score != 7 {
		t.Fatalf("Score = %v, want 7", score)
	}
}

func TestScoresAreNonNegative(t *testing.T) {
	m := syntheticMatrix(t)
	portable := align.NewPortableScorer(m, 1)
	native := nativeScorer(t, m)
	for _, ref := range scenarioReferences {
		for _, s := range []align.Scorer{portable, native} {
			score, err := s.Score("AAFFFLVVL", ref)
			if err != nil {
				t.Fatalf("%s Score: %v", s.Backend(), err)
			}
			if score < 0 {
				t.Fatalf("%s Score(AAFFFLVVL,%s) = %v", s.Backend(), ref, score)
			}
		}
	}
}

func TestBackendsAgreeOnScenarioBatch(t *testing.T) {
	m := syntheticMatrix(t)
	portable := align.NewPortableScorer(m, 3)
	native := nativeScorer(t, m)

	pairs := make([]align.Pair, 0, len(scenarioReferences))
	for _, ref := range scenarioReferences {
		pairs = append(pairs, align.Pair{A: "AAFFFLVVL", B: ref})
	}
	ctx := context.Background()
	p, err := portable.ScoreBatch(ctx, pairs)
	if err != nil {
		t.Fatalf("portable ScoreBatch: %v", err)
	}
	n, err := native.ScoreBatch(ctx, pairs)
	if err != nil {
		t.Fatalf("native ScoreBatch: %v", err)
	}
	for i := range pairs {
		if p[i] != n[i] {
			t.Fatalf("pair %d (%s): portable %v != native %v", i, pairs[i].B, p[i], n[i])
		}
		raw, err := portable.RawScore(pairs[i].A, pairs[i].B)
		if err != nil {
			t.Fatalf("RawScore: %v", err)
		}
		if float64(raw)/100 != n[i] {
			t.Fatalf("pair %d: raw %d / 100 != native %v", i, raw, n[i])
		}
	}
}

func TestBackendsAgreeOnRandomPairs(t *testing.T) {
	m := syntheticMatrix(t)
	portable := align.NewPortableScorer(m, 0)
	native := nativeScorer(t, m)

	rng := rand.New(rand.NewSource(7))
	pairs := make([]align.Pair, 200)
	for i := range pairs {
		pairs[i] = align.Pair{A: randomPeptide(rng, 3+rng.Intn(12)), B: randomPeptide(rng, 3+rng.Intn(12))}
	}
	ctx := context.Background()
	p, err := portable.ScoreBatch(ctx, pairs)
	if err != nil {
		t.Fatalf("portable ScoreBatch: %v", err)
	}
	n, err := native.ScoreBatch(ctx, pairs)
	if err != nil {
		t.Fatalf("native ScoreBatch: %v", err)
	}
	for i := range pairs {
		if p[i] != n[i] {
			t.Fatalf("pair %d %+v: portable %v != native %v", i, pairs[i], p[i], n[i])
		}
		single, err := native.Score(pairs[i].A, pairs[i].B)
		if err != nil || single != n[i] {
			t.Fatalf("pair %d: Score %v (%v) differs from batch %v", i, single, err, n[i])
		}
	}
}

func randomPeptide(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = pmbec.Alphabet[rng.Intn(len(pmbec.Alphabet))]
	}
	return string(b)
}

func TestScoreBatchRejectsInvalidPair(t *testing.T) {
	m := syntheticMatrix(t)
	pairs := []align.Pair{
		{A: "AAALPGKCGV", B: "EFKEFAAGRR"},
		{A: "AA", B: "EFKEFAAGRR"},
	}
	for _, s := range []align.Scorer{align.NewPortableScorer(m, 2), nativeScorer(t, m)} {
		_, err := s.ScoreBatch(context.Background(), pairs)
		if !errors.Is(err, services.ErrInvalidSequence) {
			t.Fatalf("%s: expected ErrInvalidSequence, got %v", s.Backend(), err)
		}
		if !strings.Contains(err.Error(), "pair 1") {
			t.Fatalf("%s: error should name the pair: %v", s.Backend(), err)
		}
	}
}

func TestScoreBatchHonorsCancellation(t *testing.T) {
	m := syntheticMatrix(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pairs := []align.Pair{{A: "AAALPGKCGV", B: "EFKEFAAGRR"}, {A: "AAFFFLVVL", B: "DPRRRSRNL"}}
	for _, s := range []align.Scorer{align.NewPortableScorer(m, 1), align.NewPortableScorer(m, 4), nativeScorer(t, m)} {
		if _, err := s.ScoreBatch(ctx, pairs); !errors.Is(err, context.Canceled) {
			t.Fatalf("%s: expected context.Canceled, got %v", s.Backend(), err)
		}
	}
}

func TestPublishedMatrixRegression(t *testing.T) {
	m, err := pmbec.Load(testsupport.PMBECPath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, s := range []align.Scorer{align.NewPortableScorer(m, 1), nativeScorer(t, m)} {
		score, err := s.Score("AAALPGKCGV", "EFKEFAAGRR")
		if err != nil {
			t.Fatalf("%s Score: %v", s.Backend(), err)
		}
		if math.Abs(score-2.38) > 1e-9 {
			t.Fatalf("%s Score = %v, want 2.38", s.Backend(), score)
		}
	}
}

type failingEngine struct{}

func (failingEngine) Init(int, []int) error { return errors.New("probe failed") }

func (failingEngine) Score(string, string) (int, error) { return 0, nil }

func (failingEngine) ScoreBatch([]string, []string) ([]int, error) { return nil, nil }

func TestSelect(t *testing.T) {
	m := syntheticMatrix(t)
	cases := []struct {
		name     string
		backend  string
		engine   align.Engine
		want     string
		fallback bool
	}{
		{"portable", config.BackendPortable, seqalign.New(1), align.BackendPortable, false},
		{"native", config.BackendNative, seqalign.New(1), align.BackendNative, false},
		{"auto with engine", config.BackendAuto, seqalign.New(1), align.BackendNative, false},
		{"auto without engine", config.BackendAuto, nil, align.BackendPortable, true},
		{"native probe failure", config.BackendNative, failingEngine{}, align.BackendPortable, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			s, err := align.Select(m, tc.engine, align.Options{Backend: tc.backend, Logger: logger})
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if s.Backend() != tc.want {
				t.Fatalf("Backend() = %q, want %q", s.Backend(), tc.want)
			}
			warned := strings.Contains(buf.String(), "level=WARN") && strings.Contains(buf.String(), "event_type=backend_fallback")
			if warned != tc.fallback {
				t.Fatalf("fallback warning = %v, want %v; log:\n%s", warned, tc.fallback, buf.String())
			}
		})
	}

	if _, err := align.Select(m, nil, align.Options{Backend: "gpu"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestNewNativeScorerReportsBackendUnavailable(t *testing.T) {
	m := syntheticMatrix(t)
	if _, err := align.NewNativeScorer(m, nil); !errors.Is(err, services.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if _, err := align.NewNativeScorer(m, failingEngine{}); !errors.Is(err, services.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
