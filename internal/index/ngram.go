package index

import "strings"

// ngramSep joins token surfaces inside an n-gram term. A control
// character keeps multi-character surfaces (syllables, unknown Han
// fallbacks) from colliding: "ab"+"c" and "a"+"bc" must not produce
// the same term.
const ngramSep = "\x1f"

// NGramCounts slides a window of size n over the token surfaces and
// counts each joined n-gram term. Sequences shorter than n yield a
// single term covering the whole sequence, so short queries still
// produce a vector.
func NGramCounts(surfaces []string, n int) map[string]int {
	if len(surfaces) == 0 || n < 1 {
		return map[string]int{}
	}
	counts := make(map[string]int)
	if len(surfaces) < n {
		counts[strings.Join(surfaces, ngramSep)] = 1
		return counts
	}
	for i := 0; i+n <= len(surfaces); i++ {
		counts[strings.Join(surfaces[i:i+n], ngramSep)]++
	}
	return counts
}
