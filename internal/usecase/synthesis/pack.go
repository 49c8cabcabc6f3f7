package synthesis

import (
	"unicode"
	"unicode/utf8"
)

// charsPerToken approximates BPE tokenization for English prose.
const charsPerToken = 4

// estimateTokens is a provider-independent upper-bound-ish token count.
func estimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + charsPerToken - 1) / charsPerToken
}

// splitOversized cuts every text larger than budget into consecutive pieces
// that each fit, breaking at whitespace where possible.
func splitOversized(texts []string, budget int) []string {
	limit := max(budget, 1) * charsPerToken
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if estimateTokens(t) <= budget {
			out = append(out, t)
			continue
		}
		runes := []rune(t)
		for len(runes) > limit {
			cut := limit
			for i := limit; i > limit/2; i-- {
				if unicode.IsSpace(runes[i]) {
					cut = i
					break
				}
			}
			out = append(out, string(runes[:cut]))
			runes = runes[cut:]
		}
		if len(runes) > 0 {
			out = append(out, string(runes))
		}
	}
	return out
}

// packGreedy groups texts in order so each group's estimated size stays within
// budget. Texts are expected to fit budget individually (see splitOversized).
func packGreedy(texts []string, budget int) [][]string {
	var (
		groups [][]string
		cur    []string
		used   int
	)
	sepTokens := estimateTokens(chunkSeparator)

	for _, t := range texts {
		size := estimateTokens(t)
		extra := size
		if len(cur) > 0 {
			extra += sepTokens
		}
		if len(cur) > 0 && used+extra > budget {
			groups = append(groups, cur)
			cur, used, extra = nil, 0, size
		}
		cur = append(cur, t)
		used += extra
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// packOnePerGroup puts every text in its own group.
func packOnePerGroup(texts []string) [][]string {
	groups := make([][]string, len(texts))
	for i, t := range texts {
		groups[i] = []string{t}
	}
	return groups
}
