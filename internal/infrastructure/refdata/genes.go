package refdata

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/turtacn/geometax/internal/domain/factor"
	"github.com/turtacn/geometax/pkg/errors"
)

// noSynonyms is the placeholder NCBI writes in the Synonyms column of
// gene_info rows that have none.
const noSynonyms = "-"

// maybeGunzip sniffs the gzip magic and transparently decompresses, so
// parsers accept the corpus both as shipped (gzipped) and as plain text.
func maybeGunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, err
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

// columnIndex locates the named columns in a header row.  A leading '#' on
// the first column (as gene_info writes it) is stripped before matching.
func columnIndex(header []string, names ...string) (map[string]int, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "#")
	}
	idx := make(map[string]int, len(names))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	out := make(map[string]int, len(names))
	for _, name := range names {
		i, ok := idx[name]
		if !ok {
			return nil, errors.New(errors.ErrCodeReferenceParseFailed, "missing required column").
				WithDetail(name)
		}
		out[name] = i
	}
	return out, nil
}

// ParseGeneInfo parses the NCBI gene_info table (tab-separated, optionally
// gzipped) into gene records.  Synonyms are pipe-separated within their
// column; the "-" placeholder means none.
func ParseGeneInfo(r io.Reader) ([]factor.GeneRecord, error) {
	plain, err := maybeGunzip(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "failed to read gene_info")
	}

	cr := csv.NewReader(plain)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "failed to read gene_info header")
	}
	cols, err := columnIndex(header, "Symbol", "Synonyms")
	if err != nil {
		return nil, err
	}

	var records []factor.GeneRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "malformed gene_info row")
		}
		if len(row) <= cols["Synonyms"] || len(row) <= cols["Symbol"] {
			continue
		}
		symbol := strings.TrimSpace(row[cols["Symbol"]])
		if symbol == "" {
			continue
		}
		rec := factor.GeneRecord{Symbol: symbol}
		if raw := row[cols["Synonyms"]]; raw != noSynonyms {
			for _, syn := range strings.Split(raw, "|") {
				if syn = strings.TrimSpace(syn); syn != "" {
					rec.Synonyms = append(rec.Synonyms, syn)
				}
			}
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceParseFailed, "gene_info contains no gene rows")
	}
	return records, nil
}

// ParseTFList parses the AnimalTFDB transcription-factor table (tab-separated
// with a Symbol column) into the set of official TF symbols.
func ParseTFList(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "failed to read TF list header")
	}
	cols, err := columnIndex(header, "Symbol")
	if err != nil {
		return nil, err
	}

	var symbols []string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "malformed TF list row")
		}
		if len(row) <= cols["Symbol"] {
			continue
		}
		if symbol := strings.TrimSpace(row[cols["Symbol"]]); symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceParseFailed, "TF list contains no symbols")
	}
	return symbols, nil
}

// ParseCRList parses the chromatin-remodeler reference into gene records.
// Two layouts are accepted: the curated CSV (chromatin_remodeler and synonyms
// columns, synonyms comma-joined within the quoted field) and the raw
// Harmonizome gene-set JSON the CSV is derived from.
func ParseCRList(r io.Reader) ([]factor.GeneRecord, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(1)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "failed to read CR list")
	}
	if first[0] == '{' {
		return parseCRAssociations(br)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "failed to read CR list header")
	}
	cols, err := columnIndex(header, "chromatin_remodeler", "synonyms")
	if err != nil {
		return nil, err
	}

	var records []factor.GeneRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "malformed CR list row")
		}
		if len(row) <= cols["chromatin_remodeler"] {
			continue
		}
		symbol := strings.TrimSpace(row[cols["chromatin_remodeler"]])
		if symbol == "" {
			continue
		}
		rec := factor.GeneRecord{Symbol: symbol}
		if len(row) > cols["synonyms"] {
			for _, syn := range strings.Split(row[cols["synonyms"]], ",") {
				if syn = strings.TrimSpace(syn); syn != "" {
					rec.Synonyms = append(rec.Synonyms, syn)
				}
			}
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceParseFailed, "CR list contains no rows")
	}
	return records, nil
}

// parseCRAssociations extracts gene symbols from a Harmonizome gene-set
// document.  The raw feed carries no synonyms; those come only from the
// curated CSV.
func parseCRAssociations(r io.Reader) ([]factor.GeneRecord, error) {
	var doc struct {
		Associations []struct {
			Gene struct {
				Symbol string `json:"symbol"`
			} `json:"gene"`
		} `json:"associations"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "malformed CR gene-set document")
	}

	var records []factor.GeneRecord
	for _, assoc := range doc.Associations {
		if symbol := strings.TrimSpace(assoc.Gene.Symbol); symbol != "" {
			records = append(records, factor.GeneRecord{Symbol: symbol})
		}
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceParseFailed, "CR gene-set contains no associations")
	}
	return records, nil
}

// BuildReferences assembles the factor reference bundle from parsed corpora.
func BuildReferences(genes []factor.GeneRecord, tfSymbols []string, crs []factor.GeneRecord) *factor.References {
	return &factor.References{
		Genes: factor.NewGeneTable(genes),
		TFs:   factor.NewTFSet(tfSymbols),
		CRs:   factor.NewCRSet(crs),
	}
}
