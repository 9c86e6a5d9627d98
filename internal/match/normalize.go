package match

import (
	"strings"
	"unicode"
)

// relationalSuffixes are stripped by NormalizeIdentWithSuffixStrip, longest first.
var relationalSuffixes = []string{"ids", "id"}

// NormalizeIdent folds an identifier for fuzzy matching: CamelCase and
// snake_case are tokenized, lowercased and joined without separators.
func NormalizeIdent(s string) string {
	return strings.Join(TokenizeIdent(s), "")
}

// NormalizeIdentWithSuffixStrip normalizes s and removes a trailing
// relational suffix ("_id", "_ids") when something remains afterwards.
func NormalizeIdentWithSuffixStrip(s string) string {
	tokens := TokenizeIdent(s)
	if len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		for _, suffix := range relationalSuffixes {
			if last == suffix {
				tokens = tokens[:len(tokens)-1]
				break
			}
		}
	}

	return strings.Join(tokens, "")
}

// TokenizeIdent splits an identifier into lowercase tokens.
//   - "partner_id" -> ["partner", "id"]
//   - "countryID" -> ["country", "id"]
//   - "XMLParser" -> ["xml", "parser"]
func TokenizeIdent(s string) []string {
	tokens := tokenizeCamelCase(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return tokens
}

func tokenizeCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && shouldStartNewToken(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// shouldStartNewToken splits before an uppercase rune that follows a
// lowercase one ("orderID") and before the last capital of an acronym
// followed by lowercase ("XMLParser").
func shouldStartNewToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if isSeparator(prev) || !unicode.IsUpper(r) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
