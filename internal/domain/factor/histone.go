package factor

import "strings"

// DefaultHistoneVariants is the recognised histone variant vocabulary,
// including sequence variants and common synonyms.  Matching is by longest
// prefix so that "H2A.Lap1" wins over "H2A.L" and "H2A".
var DefaultHistoneVariants = []string{
	"H1", "H1.0", "H1.1", "H1.2", "H1.3", "H1.4", "H1.5", "H1.6", "H1.7",
	"H1ts", "H1FNT", "H1t", "H1.8", "H1oo", "H1Foo", "H1.9", "H1.10", "H1X",
	"H2A", "H2A.1", "H2A.2", "H2A.X", "H2A.Z", "mH2A", "macroH2a",
	"H2A.B", "H2A.L", "H2A.P", "H2A.J", "H2A.Lap1", "H2A.Bbd",
	"H2B", "H2B.1", "H2B.W", "H2B.Z", "H2B.K", "H2B.N", "H2BL1",
	"H3", "H3.1", "H3.2", "H3.3", "H3.4", "H3.5", "H3.X", "H3.Y",
	"H3.6", "CENPA", "H3.7", "H3.8", "H3T",
	"H4",
}

// DefaultResidueModifications maps a residue letter to the post-translational
// modification codes chemically possible on that residue.  Codes are matched
// case-insensitively, longest first, so "me3" wins over a hypothetical "me".
var DefaultResidueModifications = map[byte][]string{
	'K': {"ac", "ar1", "bio", "but", "cr", "for", "hib", "mal", "me1", "me2", "me3", "oh", "su", "ub", "gl", "ph", "gt"},
	'R': {"ar1", "cit", "me1", "me2", "me3"},
	'S': {"ph", "og", "fa", "pal", "amp"},
	'T': {"ph", "og", "fa", "amp"},
	'Y': {"ph", "ox", "amp", "sul"},
	'C': {"ar1", "gt", "ox", "fa", "pal", "nit", "pt"},
	'E': {"ar1", "iso", "pyr"},
	'D': {"ar1", "iso"},
	'P': {"oh"},
	'M': {"ox"},
	'W': {"ox", "ph"},
	'G': {"fa", "myr"},
	'N': {"fa", "pal"},
	'Q': {"pyr"},
}

// HistoneGrammar validates whether a string is a syntactically well-formed
// histone post-translational-modification code: a variant prefix followed by
// zero or more residue/position/modification triples, each with an optional
// symmetry suffix ('s' or 'a').  Examples: "H3K27ac", "H3K27acK36me3",
// "H4R3me2s".
//
// The grammar is a pure predicate over immutable tables supplied at
// construction; Validate never performs I/O and is safe for concurrent use.
type HistoneGrammar struct {
	variants []string          // sorted longest first
	mods     map[byte][]string // per residue, sorted longest first
}

// NewHistoneGrammar builds a grammar over the supplied variant names and
// residue→modification tables.  The inputs are copied; later mutation of the
// caller's slices does not affect the grammar.
func NewHistoneGrammar(variants []string, mods map[byte][]string) *HistoneGrammar {
	vs := make([]string, len(variants))
	copy(vs, variants)
	// Longest-first ordering avoids partial-prefix false matches
	// ("H3.3K27ac" must not match variant "H3" and then fail on ".3").
	sortByLengthDesc(vs)

	ms := make(map[byte][]string, len(mods))
	for residue, codes := range mods {
		cs := make([]string, len(codes))
		copy(cs, codes)
		sortByLengthDesc(cs)
		ms[residue] = cs
	}
	return &HistoneGrammar{variants: vs, mods: ms}
}

// DefaultHistoneGrammar returns a grammar over the standard variant and
// modification tables.
func DefaultHistoneGrammar() *HistoneGrammar {
	return NewHistoneGrammar(DefaultHistoneVariants, DefaultResidueModifications)
}

func sortByLengthDesc(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && len(ss[j]) > len(ss[j-1]); j-- {
			ss[j], ss[j-1] = ss[j-1], ss[j]
		}
	}
}

// Validate reports whether mark is a well-formed histone modification code.
// The variant prefix is matched case-sensitively; residue letters and
// modification codes are matched case-insensitively.  A bare variant name
// with no modification part is valid.
func (g *HistoneGrammar) Validate(mark string) bool {
	rest := ""
	found := false
	for _, v := range g.variants {
		if strings.HasPrefix(mark, v) {
			rest = mark[len(v):]
			found = true
			break
		}
	}
	if !found {
		return false
	}

	i := 0
	for i < len(rest) {
		residue := upperASCII(rest[i])
		codes, known := g.mods[residue]
		if !known {
			return false
		}
		i++

		// One or more position digits are required.
		start := i
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}

		matched := false
		lower := strings.ToLower(rest[i:])
		for _, code := range codes {
			if strings.HasPrefix(lower, code) {
				i += len(code)
				matched = true
				break
			}
		}
		if !matched {
			return false
		}

		// Optional symmetric/asymmetric suffix.
		if i < len(rest) && (rest[i] == 's' || rest[i] == 'a') {
			i++
		}
	}
	return true
}

func upperASCII(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
