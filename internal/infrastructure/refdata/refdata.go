// Package refdata ingests the raw reference corpora the resolvers depend on:
// the NCBI gene_info table, the AnimalTFDB transcription-factor list, the
// Harmonizome chromatin-remodeler list, Cellosaurus, EFO, and Uberon.  Each
// corpus has a parser from its wire format into plain records; the builders
// in this package turn those records into the read-only lookup structures the
// domain consumes.
package refdata

import (
	"context"
	"io"
)

// Corpus object names under the reference bucket.  Downloads and rebuilds
// address corpora by these names.
const (
	CorpusGeneInfo    = "gene_info.gz"
	CorpusTFList      = "Homo_sapiens_TF.tsv"
	CorpusCRList      = "Homo_sapiens_CR.csv"
	CorpusCellosaurus = "cellosaurus.txt"
	CorpusEFO         = "efo.owl"
	CorpusUberon      = "uberon-full.json"
)

// Corpora lists every required corpus.  A rebuild aborts when any of them is
// missing from the store.
var Corpora = []string{
	CorpusGeneInfo,
	CorpusTFList,
	CorpusCRList,
	CorpusCellosaurus,
	CorpusEFO,
	CorpusUberon,
}

// Store is the blob storage the corpora live in between download and rebuild.
type Store interface {
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	Put(ctx context.Context, name string, r io.Reader, size int64) error
}

// Term is one vocabulary entry parsed from an ontology corpus: its accession,
// its official label, and every synonym that should hit the same entry.
type Term struct {
	Accession string
	Label     string
	Synonyms  []string
}
