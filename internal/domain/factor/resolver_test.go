package factor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/geometax/internal/domain/factor"
)

// scriptedOracle is a deterministic Oracle for tests.  Each call is counted
// and answered from the configured maps; unconfigured calls fail loudly so a
// test never silently takes an unexpected path.
type scriptedOracle struct {
	t *testing.T

	picks    map[string]string   // joined candidates -> choice
	synonyms map[string][]string // term -> synonyms
	rechecks []string            // consumed in order

	pickCalls    int
	synonymCalls int
	recheckCalls int

	recheckErr error
}

func (o *scriptedOracle) Disambiguate(_ context.Context, candidates []string, _ string, _ []string) (string, error) {
	o.pickCalls++
	key := joinSymbols(candidates)
	choice, ok := o.picks[key]
	if !ok {
		o.t.Fatalf("unexpected Disambiguate call for %q", key)
	}
	return choice, nil
}

func (o *scriptedOracle) Synonyms(_ context.Context, term string) ([]string, error) {
	o.synonymCalls++
	return o.synonyms[term], nil
}

func (o *scriptedOracle) Recheck(_ context.Context, _ string, _ []string, excluded []string) (string, error) {
	o.recheckCalls++
	if o.recheckErr != nil {
		return "", o.recheckErr
	}
	if len(o.rechecks) == 0 {
		o.t.Fatalf("unexpected Recheck call with excluded %v", excluded)
	}
	next := o.rechecks[0]
	o.rechecks = o.rechecks[1:]
	return next, nil
}

func joinSymbols(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func testReferences() *factor.References {
	genes := factor.NewGeneTable([]factor.GeneRecord{
		{Symbol: "ESR1", Synonyms: []string{"ER", "Era", "NR3A1"}},
		{Symbol: "ESR2", Synonyms: []string{"ER", "Erb"}},
		{Symbol: "POLR2A", Synonyms: []string{"RPB1", "POL2"}},
		{Symbol: "SMARCA4", Synonyms: []string{"BRG1", "SNF2"}},
		{Symbol: "SMARCA2", Synonyms: []string{"BRM", "SNF2"}},
		{Symbol: "CTCF", Synonyms: []string{"MRD21"}},
	})
	tfs := factor.NewTFSet([]string{"ESR1", "ESR2", "CTCF"})
	crs := factor.NewCRSet([]factor.GeneRecord{
		{Symbol: "SMARCA4", Synonyms: []string{"BRG1"}},
		{Symbol: "SMARCA2", Synonyms: []string{"BRM"}},
	})
	return &factor.References{Genes: genes, TFs: tfs, CRs: crs}
}

func newTestResolver(t *testing.T, o *scriptedOracle) *factor.Resolver {
	t.Helper()
	return factor.NewResolver(testReferences(), factor.DefaultHistoneGrammar(), o)
}

func TestResolve_UniqueSymbol(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{t: t}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "CTCF", "ChIP-seq of CTCF in K562", nil)
	require.True(t, got.OK)
	assert.Equal(t, "CTCF", got.Symbol)
	assert.Equal(t, factor.SourceGene, got.Source)
	assert.Zero(t, o.pickCalls, "a unique gene match must not consult the oracle")
	assert.Zero(t, o.recheckCalls)
}

func TestResolve_HistoneMarkShortCircuit(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{t: t}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "H3K27ac", "H3K27ac ChIP", nil)
	require.True(t, got.OK)
	assert.Equal(t, "H3K27ac", got.Symbol)
	assert.Equal(t, factor.SourceHistoneMark, got.Source)
	assert.Zero(t, o.recheckCalls)
}

func TestResolve_TFDisambiguation(t *testing.T) {
	t.Parallel()

	// "ER" hits both ESR1 and ESR2; both are TFs, so the oracle picks.
	o := &scriptedOracle{
		t:     t,
		picks: map[string]string{"ESR1,ESR2": "ESR1"},
	}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "ER", "estrogen receptor ChIP in MCF-7", nil)
	require.True(t, got.OK)
	assert.Equal(t, "ESR1", got.Symbol)
	assert.Equal(t, factor.SourceTranscriptionFactor, got.Source)
	assert.Equal(t, 1, o.pickCalls)
}

func TestResolve_TFPickOutsideCandidatesFails(t *testing.T) {
	t.Parallel()

	// An off-list pick inside the TF branch is not accepted, and the branch
	// does not fall through to the remodeler filter.  The round proceeds to
	// synonym retry and then recheck.
	o := &scriptedOracle{
		t:        t,
		picks:    map[string]string{"ESR1,ESR2": "GATA3"},
		synonyms: map[string][]string{"ER": nil},
		rechecks: []string{"CTCF"},
	}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "ER", "some record", nil)
	require.True(t, got.OK)
	assert.Equal(t, "CTCF", got.Symbol)
	assert.Equal(t, 1, o.recheckCalls)
}

func TestResolve_CRDisambiguation(t *testing.T) {
	t.Parallel()

	// "SNF2" hits SMARCA4 and SMARCA2; neither is a TF, both are
	// remodelers, so the pick happens in the CR branch.
	o := &scriptedOracle{
		t:     t,
		picks: map[string]string{"SMARCA4,SMARCA2": "SMARCA4"},
	}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "SNF2", "BAF complex ChIP", nil)
	require.True(t, got.OK)
	assert.Equal(t, "SMARCA4", got.Symbol)
	assert.Equal(t, factor.SourceChromatinRemodeler, got.Source)
}

func TestResolve_SingleCRMatch(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{t: t}
	// BRG1 resolves to SMARCA4 alone, so no oracle call is needed even
	// though SMARCA4 is not a TF.
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "BRG1", "record", nil)
	require.True(t, got.OK)
	assert.Equal(t, "SMARCA4", got.Symbol)
	assert.Equal(t, factor.SourceChromatinRemodeler, got.Source)
	assert.Zero(t, o.pickCalls)
}

func TestResolve_SynonymRetry(t *testing.T) {
	t.Parallel()

	// "Pol II" is not in the table; its oracle synonym POLR2A is.
	o := &scriptedOracle{
		t:        t,
		synonyms: map[string][]string{"Pol II": {"RNAP2", "POLR2A"}},
	}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "Pol II", "RNA polymerase II ChIP", nil)
	require.True(t, got.OK)
	assert.Equal(t, "POLR2A", got.Symbol)
	assert.Equal(t, factor.SourceGene, got.Source)
	assert.Equal(t, 1, o.synonymCalls)
	assert.Zero(t, o.recheckCalls)
}

func TestResolve_RecheckRecovers(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{
		t:        t,
		synonyms: map[string][]string{"GFP": nil},
		rechecks: []string{"ESR1"},
	}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "GFP", "GFP-tagged ESR1 ChIP", nil)
	require.True(t, got.OK)
	assert.Equal(t, "ESR1", got.Symbol)
	assert.Equal(t, 1, o.recheckCalls)
}

func TestResolve_ExhaustsAfterThreeRounds(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{
		t:        t,
		synonyms: map[string][]string{"bogus1": nil, "bogus2": nil, "bogus3": nil},
		rechecks: []string{"bogus2", "bogus3", "bogus4"},
	}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "bogus1", "unparseable record", nil)
	assert.False(t, got.OK)
	assert.Empty(t, got.Symbol)
	// Round 3's recheck runs even though its answer is never tried.
	assert.Equal(t, 3, o.recheckCalls)
}

func TestResolve_NoneSkipsLookup(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{
		t:        t,
		rechecks: []string{"CTCF"},
	}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "None", "input record", nil)
	require.True(t, got.OK)
	assert.Equal(t, "CTCF", got.Symbol)
	assert.Zero(t, o.synonymCalls, "the None sentinel must go straight to recheck")
}

func TestResolve_RecheckErrorStops(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{
		t:          t,
		synonyms:   map[string][]string{"bogus": nil},
		recheckErr: errors.New("provider unavailable"),
	}
	r := newTestResolver(t, o)

	got := r.Resolve(context.Background(), "bogus", "record", nil)
	assert.False(t, got.OK)
	assert.Equal(t, 1, o.recheckCalls, "a failed recheck must end the loop")
}

func TestResolve_CancelledContext(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{t: t}
	r := newTestResolver(t, o)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := r.Resolve(ctx, "CTCF", "record", nil)
	assert.False(t, got.OK)
}
