package oracle

import (
	"fmt"
	"strings"
)

// Prompt builders.  Each returns a single user-turn prompt; responses are
// constrained to bare values or JSON so parse.go can decode them without
// provider-specific structured-output features.

func contextBlock(record string, series []string) string {
	var b strings.Builder
	b.WriteString("Sample record:\n")
	b.WriteString(record)
	if len(series) > 0 {
		b.WriteString("\n\nSeries context:\n")
		for _, s := range series {
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func isControlPrompt(record string, series []string) string {
	return fmt.Sprintf(`You are curating ChIP-seq metadata. Decide whether the experiment below is a control, input, DNase-seq, ATAC-seq, or ChAP-seq experiment that has no target factor.

%s

Answer with exactly one word: "true" if it is such an experiment, otherwise "false".`, contextBlock(record, series))
}

func extractFactorPrompt(record string, series []string) string {
	return fmt.Sprintf(`You are curating ChIP-seq metadata. Identify the target factor of the experiment below: the gene symbol, protein, or histone modification (e.g. H3K27ac) the assay was designed to localize.

%s

Answer with the factor name only, no explanation. If no target factor can be identified, answer exactly "None".`, contextBlock(record, series))
}

func extractOntologyPrompt(record string, series []string) string {
	return fmt.Sprintf(`You are curating biosample metadata. From the record below, extract the cell line, cell type, tissue, and disease of the sample.

%s

Answer with a JSON object of exactly these keys: "cell_line", "cell_type", "tissue", "disease". Use the literal string "N/A" for any slot the record does not state. No explanation.`, contextBlock(record, series))
}

func disambiguatePrompt(candidates []string, record string, series []string) string {
	return fmt.Sprintf(`You are curating ChIP-seq metadata. The target factor of the experiment below matched several official gene symbols:

%s

%s

Answer with the single symbol from the list above that the experiment most plausibly targets, and nothing else.`, strings.Join(candidates, ", "), contextBlock(record, series))
}

func synonymsPrompt(term string) string {
	return fmt.Sprintf(`List alternative names, aliases, and official symbols for the gene or protein %q.

Answer with a JSON list of strings, most official first, no explanation.`, term)
}

func alternateNamesPrompt(term string) string {
	return fmt.Sprintf(`The biosample term %q did not match any entry in the Cellosaurus, EFO, or Uberon vocabularies. Suggest three alternative phrasings of the same term that are more likely to appear in those vocabularies (official names, expanded abbreviations, parent terms).

Answer with a JSON list of exactly 3 strings, no explanation.`, term)
}

func recheckPrompt(record string, series []string, excluded []string) string {
	return fmt.Sprintf(`You are curating ChIP-seq metadata. Identify the target factor of the experiment below. The following earlier readings were wrong, do not repeat them: %s.

%s

Answer with the factor name only, no explanation. If no target factor can be identified, answer exactly "None".`, strings.Join(excluded, ", "), contextBlock(record, series))
}
