// Package version implements lenient comparison of dotted version strings.
//
// Agents report free-form strings ("8.3.1", "v1.2-rc1", "18"), so the
// comparator is deliberately lossy: it reduces both inputs to integer
// sequences and compares those. It never fails; garbage degrades to
// zero-valued tokens.
package version

import (
	"strconv"
	"strings"
)

var separators = strings.NewReplacer("+", ".", "-", ".")

// Compare returns the sign of a - b when both strings are read as integer
// sequences: -1, 0, or 1. A single leading "v"/"V" is stripped, tokens are
// split on ".", "+", and "-", and non-digit characters inside a token are
// discarded before parsing. A missing trailing position counts as 0, so
// "8.3" equals "8.3.0".
func Compare(a, b string) int {
	pa := parse(a)
	pb := parse(b)
	for i := range max(len(pa), len(pb)) {
		var na, nb int
		if i < len(pa) {
			na = pa[i]
		}
		if i < len(pb) {
			nb = pb[i]
		}
		if na > nb {
			return 1
		}
		if na < nb {
			return -1
		}
	}
	return 0
}

func parse(v string) []int {
	v = strings.TrimSpace(v)
	if len(v) > 0 && (v[0] == 'v' || v[0] == 'V') {
		v = v[1:]
	}
	tokens := strings.Split(separators.Replace(v), ".")
	nums := make([]int, len(tokens))
	for i, tok := range tokens {
		var digits strings.Builder
		for _, r := range tok {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		// Empty or non-numeric tokens stay 0.
		if n, err := strconv.Atoi(digits.String()); err == nil {
			nums[i] = n
		}
	}
	return nums
}
