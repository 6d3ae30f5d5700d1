package catalog

import (
	"sort"
	"strings"
	"unicode"
)

const (
	codeExactWeight  = 100
	codePrefixWeight = 10
	nameTokenWeight  = 2
	namePrefixWeight = 1
)

// Match is a search hit with its score.
type Match struct {
	Product
	Score int `json:"score"`
}

// Search ranks products against free text typed by the operator. A query
// equal to a whole product code scores highest; otherwise every query token
// must hit a word of the code or name. Hits are ordered by score, then
// code. limit <= 0 means no limit.
func (c *Catalog) Search(query string, limit int) []Match {
	whole := normalizeText(query)
	tokens := strings.Fields(whole)
	if c == nil || len(tokens) == 0 {
		return nil
	}
	code := NormalizeCode(query)

	var out []Match
	for _, p := range c.products {
		var score int
		if p.Code == code || normalizeText(p.Code) == whole {
			score = codeExactWeight
		} else {
			score = scoreProduct(p, tokens)
		}
		if score > 0 {
			out = append(out, Match{Product: p, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Code < out[j].Code
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func scoreProduct(p Product, tokens []string) int {
	code := strings.Fields(normalizeText(p.Code))
	name := strings.Fields(normalizeText(p.Name))

	total := 0
	for _, tok := range tokens {
		score := 0
		for _, w := range code {
			if strings.HasPrefix(w, tok) {
				score = codePrefixWeight
				break
			}
		}
		for _, w := range name {
			if w == tok {
				score += nameTokenWeight
			} else if strings.HasPrefix(w, tok) {
				score += namePrefixWeight
			}
		}
		if score == 0 {
			return 0
		}
		total += score
	}
	return total
}

// normalizeText lowercases s and turns everything but letters and digits
// into single spaces.
func normalizeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
