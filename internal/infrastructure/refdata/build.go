package refdata

import (
	"github.com/turtacn/geometax/internal/domain/normalize"
	"github.com/turtacn/geometax/internal/domain/ontology"
)

// BuildIndex folds parsed terms into one vocabulary index.
func BuildIndex(source ontology.Source, norm *normalize.Normalizer, terms []Term) *ontology.Index {
	idx := ontology.NewIndex(source, norm)
	for _, t := range terms {
		idx.Add(t.Accession, t.Label, t.Synonyms...)
	}
	return idx
}

// BuildIndexSet assembles the three vocabulary indexes from parsed corpora.
func BuildIndexSet(norm *normalize.Normalizer, cellosaurus, efo, uberon []Term) *ontology.IndexSet {
	return &ontology.IndexSet{
		Cellosaurus: BuildIndex(ontology.SourceCellosaurus, norm, cellosaurus),
		EFO:         BuildIndex(ontology.SourceEFO, norm, efo),
		Uberon:      BuildIndex(ontology.SourceUberon, norm, uberon),
	}
}
