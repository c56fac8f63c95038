package refdata_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/geometax/internal/domain/normalize"
	"github.com/turtacn/geometax/internal/domain/ontology"
	"github.com/turtacn/geometax/internal/infrastructure/refdata"
	"github.com/turtacn/geometax/pkg/errors"
)

const geneInfoTSV = "#tax_id\tGeneID\tSymbol\tLocusTag\tSynonyms\n" +
	"9606\t2099\tESR1\t-\tER|ESR|Era\n" +
	"9606\t10664\tCTCF\t-\t-\n" +
	"9606\t6597\tSMARCA4\t-\tBRG1|SNF2\n"

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func TestParseGeneInfo(t *testing.T) {
	t.Parallel()

	records, err := refdata.ParseGeneInfo(strings.NewReader(geneInfoTSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "ESR1", records[0].Symbol)
	assert.Equal(t, []string{"ER", "ESR", "Era"}, records[0].Synonyms)
	// The "-" placeholder means no synonyms at all.
	assert.Equal(t, "CTCF", records[1].Symbol)
	assert.Empty(t, records[1].Synonyms)
}

func TestParseGeneInfo_Gzipped(t *testing.T) {
	t.Parallel()

	records, err := refdata.ParseGeneInfo(bytes.NewReader(gzipped(t, geneInfoTSV)))
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestParseGeneInfo_MissingColumn(t *testing.T) {
	t.Parallel()

	_, err := refdata.ParseGeneInfo(strings.NewReader("#tax_id\tGeneID\n9606\t1\n"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceParseFailed))
}

func TestParseTFList(t *testing.T) {
	t.Parallel()

	tsv := "Species\tSymbol\tEnsembl\tFamily\n" +
		"Homo_sapiens\tESR1\tENSG00000091831\tNR\n" +
		"Homo_sapiens\tCTCF\tENSG00000102974\tzf-C2H2\n"
	symbols, err := refdata.ParseTFList(strings.NewReader(tsv))
	require.NoError(t, err)
	assert.Equal(t, []string{"ESR1", "CTCF"}, symbols)
}

func TestParseCRList(t *testing.T) {
	t.Parallel()

	csv := "chromatin_remodeler,synonyms\n" +
		"SMARCA4,\"BRG1, SNF2, BAF190A\"\n" +
		"CHD4,\n"
	records, err := refdata.ParseCRList(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SMARCA4", records[0].Symbol)
	assert.Equal(t, []string{"BRG1", "SNF2", "BAF190A"}, records[0].Synonyms)
	assert.Empty(t, records[1].Synonyms)
}

func TestParseCRList_HarmonizomeJSON(t *testing.T) {
	t.Parallel()

	doc := `{"associations":[{"gene":{"symbol":"SMARCA4"}},{"gene":{"symbol":"CHD4"}}]}`
	records, err := refdata.ParseCRList(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SMARCA4", records[0].Symbol)
	assert.Empty(t, records[0].Synonyms)
}

const cellosaurusTxt = `ID   MCF-7
AC   CVCL_0031
SY   MCF7; MCF 7; Michigan Cancer Foundation-7
OX   NCBI_TaxID=9606; ! Homo sapiens (Human)
CA   Cancer cell line
//
ID   CHO-K1
AC   CVCL_0214
OX   NCBI_TaxID=10029; ! Cricetulus griseus (Chinese hamster)
//
ID   K-562
AC   CVCL_0004
OX   NCBI_TaxID=9606; ! Homo sapiens (Human)
//
`

func TestParseCellosaurus(t *testing.T) {
	t.Parallel()

	terms, err := refdata.ParseCellosaurus(strings.NewReader(cellosaurusTxt))
	require.NoError(t, err)
	// The hamster line is filtered out.
	require.Len(t, terms, 2)

	assert.Equal(t, "CVCL_0031", terms[0].Accession)
	assert.Equal(t, "MCF-7", terms[0].Label)
	assert.Equal(t, []string{"MCF7", "MCF 7", "Michigan Cancer Foundation-7"}, terms[0].Synonyms)
	assert.Equal(t, "K-562", terms[1].Label)
}

const efoOWL = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xmlns:oboInOwl="http://www.geneontology.org/formats/oboInOwl#">
  <owl:Class rdf:about="http://www.ebi.ac.uk/efo/EFO_0000305">
    <rdfs:label>breast carcinoma</rdfs:label>
    <oboInOwl:hasExactSynonym>carcinoma of breast</oboInOwl:hasExactSynonym>
    <oboInOwl:hasRelatedSynonym>breast cancer</oboInOwl:hasRelatedSynonym>
  </owl:Class>
  <owl:Class rdf:about="http://www.ebi.ac.uk/efo/EFO_0009999"/>
</rdf:RDF>`

func TestParseEFO(t *testing.T) {
	t.Parallel()

	terms, err := refdata.ParseEFO(strings.NewReader(efoOWL))
	require.NoError(t, err)
	// The unlabelled class is skipped.
	require.Len(t, terms, 1)
	assert.Equal(t, "EFO_0000305", terms[0].Accession)
	assert.Equal(t, "breast carcinoma", terms[0].Label)
	assert.Equal(t, []string{"carcinoma of breast", "breast cancer"}, terms[0].Synonyms)
}

const uberonJSON = `{
  "graphs": [{
    "nodes": [
      {
        "id": "http://purl.obolibrary.org/obo/UBERON_0002107",
        "lbl": "liver",
        "meta": {
          "synonyms": [
            {"pred": "hasExactSynonym", "val": "hepatic organ"},
            {"pred": "hasNarrowSynonym", "val": "liver lobe"}
          ]
        }
      },
      {"id": "http://purl.obolibrary.org/obo/UBERON_9999999"}
    ]
  }]
}`

func TestParseUberon(t *testing.T) {
	t.Parallel()

	terms, err := refdata.ParseUberon(strings.NewReader(uberonJSON))
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "UBERON_0002107", terms[0].Accession)
	assert.Equal(t, "liver", terms[0].Label)
	// Narrow synonyms are out of scope.
	assert.Equal(t, []string{"hepatic organ"}, terms[0].Synonyms)
}

func TestBuildIndexSet(t *testing.T) {
	t.Parallel()

	norm := normalize.New(normalize.DefaultStopwords)
	set := refdata.BuildIndexSet(norm,
		[]refdata.Term{{Accession: "CVCL_0031", Label: "MCF-7", Synonyms: []string{"MCF7"}}},
		[]refdata.Term{{Accession: "EFO_0000305", Label: "breast carcinoma"}},
		[]refdata.Term{{Accession: "UBERON_0002107", Label: "liver"}},
	)
	require.True(t, set.Complete())
	assert.Equal(t, ontology.SourceCellosaurus, set.Cellosaurus.Source())

	hits := set.Cellosaurus.Exact(norm.Key("MCF7"))
	require.Len(t, hits, 1)
	assert.Equal(t, "MCF-7", hits[0].OfficialTerm)
}

type memStore struct {
	objects map[string][]byte
}

func (s *memStore) Get(_ context.Context, name string) (io.ReadCloser, error) {
	b, ok := s.objects[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no such object")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memStore) Put(_ context.Context, name string, r io.Reader, _ int64) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[name] = b
	return nil
}

func TestDownloader_Fetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = w.Write([]byte(cellosaurusTxt))
	}))
	defer srv.Close()

	store := &memStore{}
	d := refdata.NewDownloader(store, refdata.WithSources(map[string]string{
		refdata.CorpusCellosaurus: srv.URL,
	}))

	require.NoError(t, d.Fetch(context.Background(), refdata.CorpusCellosaurus))
	assert.Equal(t, []byte(cellosaurusTxt), store.objects[refdata.CorpusCellosaurus])
}

func TestDownloader_FetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := refdata.NewDownloader(&memStore{}, refdata.WithSources(map[string]string{
		refdata.CorpusEFO: srv.URL,
	}))
	err := d.Fetch(context.Background(), refdata.CorpusEFO)
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceDownload))
}
