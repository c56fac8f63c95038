package ontology_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/geometax/internal/domain/normalize"
	"github.com/turtacn/geometax/internal/domain/ontology"
)

type altNamer struct {
	t     *testing.T
	names map[string][]string
	err   error
	calls int
}

func (a *altNamer) AlternateNames(_ context.Context, term string) ([]string, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	names, ok := a.names[term]
	if !ok {
		a.t.Fatalf("unexpected AlternateNames call for %q", term)
	}
	return names, nil
}

func testIndexes(norm *normalize.Normalizer) *ontology.IndexSet {
	cello := ontology.NewIndex(ontology.SourceCellosaurus, norm)
	cello.Add("CVCL_0031", "MCF-7", "MCF7", "MCF.7")

	efo := ontology.NewIndex(ontology.SourceEFO, norm)
	efo.Add("EFO:0000305", "breast carcinoma", "breast cancer", "cancer of breast")
	efo.Add("EFO:0000571", "lobular carcinoma", "invasive lobular breast carcinoma")

	uberon := ontology.NewIndex(ontology.SourceUberon, norm)
	uberon.Add("UBERON:0002107", "liver")
	uberon.Add("UBERON:0000310", "breast", "mammary region")

	return &ontology.IndexSet{Cellosaurus: cello, EFO: efo, Uberon: uberon}
}

func newTestResolver(t *testing.T, oracle ontology.AlternateNamer) *ontology.Resolver {
	t.Helper()
	norm := normalize.New(normalize.DefaultStopwords)
	return ontology.NewResolver(testIndexes(norm), norm, oracle)
}

func TestResolve_ExactTier(t *testing.T) {
	t.Parallel()

	oracle := &altNamer{t: t}
	r := newTestResolver(t, oracle)

	got := r.Resolve(context.Background(), ontology.Candidates{
		Disease:  "Breast Cancer",
		CellLine: "N/A",
		CellType: "N/A",
		Tissue:   "N/A",
	})

	require.Len(t, got.Disease, 1)
	m := got.Disease[0]
	assert.Equal(t, "breast carcinoma", m.OfficialTerm)
	assert.Equal(t, ontology.Value{"EFO:0000305"}, m.Accession)
	assert.Equal(t, ontology.Value{"Breast Cancer"}, m.Term)
	assert.Equal(t, ontology.Value{"disease"}, m.TermIdentity)
	assert.Nil(t, got.CellLine)
	assert.Zero(t, oracle.calls, "an exact hit must not consult the oracle")
}

func TestResolve_NASlotsAreNull(t *testing.T) {
	t.Parallel()

	oracle := &altNamer{t: t}
	r := newTestResolver(t, oracle)

	got := r.Resolve(context.Background(), ontology.Candidates{
		CellLine: "N/A", CellType: "N/A", Tissue: "N/A", Disease: "N/A",
	})

	assert.True(t, got.Empty())
	assert.Zero(t, oracle.calls, "the N/A sentinel must never reach the oracle")
}

func TestResolve_CellosaurusOnlyForCellLine(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, nil)

	got := r.Resolve(context.Background(), ontology.Candidates{
		CellLine: "MCF-7",
		Tissue:   "MCF-7",
		CellType: "N/A",
		Disease:  "N/A",
	})

	require.Len(t, got.CellLine, 1)
	assert.Equal(t, "MCF-7", got.CellLine[0].OfficialTerm)
	assert.Nil(t, got.Tissue, "cell-line vocabulary must not leak into other slots")
}

func TestResolve_ReducedQueryTier(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, nil)

	// "MCF-7 cell line" misses the strict key but reduces to "mcf7".
	got := r.Resolve(context.Background(), ontology.Candidates{
		CellLine: "MCF-7 cell line",
		CellType: "N/A", Tissue: "N/A", Disease: "N/A",
	})

	require.Len(t, got.CellLine, 1)
	assert.Equal(t, "MCF-7", got.CellLine[0].OfficialTerm)
	assert.Equal(t, ontology.Value{"MCF-7 cell line"}, got.CellLine[0].Term)
}

func TestResolve_FuzzyTierUnionOnTie(t *testing.T) {
	t.Parallel()

	norm := normalize.New(normalize.DefaultStopwords)
	efo := ontology.NewIndex(ontology.SourceEFO, norm)
	// Both names token-sort to the same string, so they tie at the same
	// score against any query and both must survive the fuzzy tier.
	efo.Add("EFO:1", "carcinoma alpha", "invasive ductal carcinoma x2")
	efo.Add("EFO:2", "carcinoma beta", "x2 invasive ductal carcinoma")
	r := ontology.NewResolver(&ontology.IndexSet{EFO: efo}, norm, nil)

	got := r.Resolve(context.Background(), ontology.Candidates{
		Disease:  "invasive ductal carcinoma",
		CellLine: "N/A", CellType: "N/A", Tissue: "N/A",
	})

	require.Len(t, got.Disease, 2, "tied maximum scores must union, not drop")
	terms := []string{got.Disease[0].OfficialTerm, got.Disease[1].OfficialTerm}
	assert.ElementsMatch(t, []string{"carcinoma alpha", "carcinoma beta"}, terms)
}

// scriptedScorer returns a fixed score per index key, regardless of query.
type scriptedScorer map[string]float64

func (s scriptedScorer) Score(_, key string) float64 { return s[key] }

func TestResolve_FuzzyTierKeepsPerSourceMaxima(t *testing.T) {
	t.Parallel()

	norm := normalize.New(normalize.DefaultStopwords)
	efo := ontology.NewIndex(ontology.SourceEFO, norm)
	efo.Add("EFO:0001071", "lung carcinoma")
	uberon := ontology.NewIndex(ontology.SourceUberon, norm)
	uberon.Add("UBERON:0002048", "lung")

	// EFO's best key outscores Uberon's, but each source is scored against
	// its own maximum, so Uberon's above-threshold best survives too.
	scores := scriptedScorer{
		norm.FuzzyKey("lung carcinoma"): 0.95,
		norm.FuzzyKey("lung"):           0.87,
	}
	r := ontology.NewResolver(&ontology.IndexSet{EFO: efo, Uberon: uberon}, norm, nil,
		ontology.WithScorer(scores))

	got := r.Resolve(context.Background(), ontology.Candidates{
		Tissue:   "lung carcinomas",
		CellLine: "N/A", CellType: "N/A", Disease: "N/A",
	})

	require.Len(t, got.Tissue, 2)
	terms := []string{got.Tissue[0].OfficialTerm, got.Tissue[1].OfficialTerm}
	assert.ElementsMatch(t, []string{"lung carcinoma", "lung"}, terms)
}

func TestResolve_FuzzyTierBelowThreshold(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, &altNamer{t: t, names: map[string][]string{
		"pancreatic islet": {"N/A", "N/A", "N/A"},
	}})

	got := r.Resolve(context.Background(), ontology.Candidates{
		Tissue:   "pancreatic islet",
		CellLine: "N/A", CellType: "N/A", Disease: "N/A",
	})

	assert.Nil(t, got.Tissue)
}

func TestResolve_AlternateNameRetry(t *testing.T) {
	t.Parallel()

	oracle := &altNamer{t: t, names: map[string][]string{
		"hepatic parenchyma": {"nothing useful", "liver", "N/A"},
	}}
	r := newTestResolver(t, oracle)

	got := r.Resolve(context.Background(), ontology.Candidates{
		Tissue:   "hepatic parenchyma",
		CellLine: "N/A", CellType: "N/A", Disease: "N/A",
	})

	require.Len(t, got.Tissue, 1)
	assert.Equal(t, "liver", got.Tissue[0].OfficialTerm)
	// The match is tagged with the alternate that actually hit.
	assert.Equal(t, ontology.Value{"liver"}, got.Tissue[0].Term)
	assert.Equal(t, 1, oracle.calls)
}

func TestResolve_MalformedAlternateResponse(t *testing.T) {
	t.Parallel()

	oracle := &altNamer{t: t, names: map[string][]string{
		"mystery tissue": {"liver"}, // not the contracted three suggestions
	}}
	r := newTestResolver(t, oracle)

	got := r.Resolve(context.Background(), ontology.Candidates{
		Tissue:   "mystery tissue",
		CellLine: "N/A", CellType: "N/A", Disease: "N/A",
	})

	assert.Nil(t, got.Tissue, "a malformed oracle response must leave the slot unresolved")
}

func TestResolve_OracleFailureIsolatedPerSlot(t *testing.T) {
	t.Parallel()

	oracle := &altNamer{t: t, err: errors.New("provider unavailable")}
	r := newTestResolver(t, oracle)

	got := r.Resolve(context.Background(), ontology.Candidates{
		Tissue:  "mystery tissue",
		Disease: "breast cancer",
		CellLine: "N/A", CellType: "N/A",
	})

	assert.Nil(t, got.Tissue)
	require.Len(t, got.Disease, 1, "a failing oracle on one slot must not abort its siblings")
	assert.Equal(t, "breast carcinoma", got.Disease[0].OfficialTerm)
}

func TestCollapse_FieldMerge(t *testing.T) {
	t.Parallel()

	merged := ontology.Collapse([]ontology.Match{
		{Accession: "EFO:1", Source: ontology.SourceEFO, OfficialTerm: "breast carcinoma", Term: "breast cancer", TermIdentity: ontology.SlotDisease},
		{Accession: "EFO:2", Source: ontology.SourceEFO, OfficialTerm: "breast carcinoma", Term: "breast cancer", TermIdentity: ontology.SlotDisease},
		{Accession: "UBERON:1", Source: ontology.SourceUberon, OfficialTerm: "breast", Term: "breast cancer", TermIdentity: ontology.SlotDisease},
	})

	require.Len(t, merged, 2)
	first := merged[0]
	assert.Equal(t, "breast carcinoma", first.OfficialTerm)
	assert.Equal(t, ontology.Value{"EFO:1", "EFO:2"}, first.Accession, "diverging field becomes a list")
	assert.Equal(t, ontology.Value{"efo"}, first.Source, "identical field stays scalar")
	assert.Equal(t, ontology.Value{"disease"}, first.TermIdentity)
	assert.Equal(t, "breast", merged[1].OfficialTerm)
}

func TestSlotResult_JSONShape(t *testing.T) {
	t.Parallel()

	var null ontology.SlotResult
	b, err := json.Marshal(null)
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(b))

	single := ontology.SlotResult{{
		Accession:    ontology.Value{"EFO:1"},
		Source:       ontology.Value{"efo"},
		OfficialTerm: "breast carcinoma",
		Term:         ontology.Value{"breast cancer"},
		TermIdentity: ontology.Value{"disease"},
	}}
	b, err = json.Marshal(single)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ontology_accession": "EFO:1",
		"source": "efo",
		"official_term": "breast carcinoma",
		"term": "breast cancer",
		"term_identity": "disease"
	}`, string(b))

	double := append(single, single[0])
	b, err = json.Marshal(double)
	require.NoError(t, err)
	assert.Equal(t, byte('['), b[0], "multiple official terms render as an array")
}

func TestIndex_AddSkipsEmptyOfficialTerm(t *testing.T) {
	t.Parallel()

	norm := normalize.New(normalize.DefaultStopwords)
	idx := ontology.NewIndex(ontology.SourceEFO, norm)
	idx.Add("EFO:1", "", "orphan synonym")
	assert.Zero(t, idx.Len())
}
