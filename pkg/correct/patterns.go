package correct

import (
	"regexp"
	"strings"
)

var (
	multiSpaceRe       = regexp.MustCompile(` {2,}`)
	spaceBeforePunctRe = regexp.MustCompile(`\s+([.,!?;:)])`)
	missingSpaceRe     = regexp.MustCompile(`([.,!?;:])([a-zA-Zа-яА-ЯёЁ])`)

	// Double low commas and doubled apostrophes are how engines read
	// typographic quotation marks.
	quoteArtifacts = strings.NewReplacer(",,", `"`, "''", `"`)
)

type fixup struct {
	re          *regexp.Regexp
	replacement string
}

// confusableFixups repair short tokens the recognizers reliably get
// wrong: digit/letter swaps in common English words. Word-boundary
// matches only, never inside larger words.
var confusableFixups = []fixup{
	{regexp.MustCompile(`(?i)\b1\s+am\b`), "I am"},
	{regexp.MustCompile(`(?i)\b1\s+have\b`), "I have"},
	{regexp.MustCompile(`(?i)\b1\s+will\b`), "I will"},
	{regexp.MustCompile(`\b1'm\b`), "I'm"},
	{regexp.MustCompile(`\b1've\b`), "I've"},
	{regexp.MustCompile(`\b1'll\b`), "I'll"},
	{regexp.MustCompile(`\b0f\b`), "of"},
	{regexp.MustCompile(`\b0r\b`), "or"},
	{regexp.MustCompile(`\b1n\b`), "in"},
	{regexp.MustCompile(`\bt0\b`), "to"},
}

// fixObviousErrors is the first correction stage: spacing around
// punctuation, quote artifacts and the confusable token table.
func fixObviousErrors(text string) string {
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = spaceBeforePunctRe.ReplaceAllString(text, "$1")
	text = missingSpaceRe.ReplaceAllString(text, "${1} ${2}")
	text = quoteArtifacts.Replace(text)

	for _, f := range confusableFixups {
		text = f.re.ReplaceAllString(text, f.replacement)
	}
	return text
}

type homoglyph struct {
	re          *regexp.Regexp
	replacement string
}

// cyrillicHomoglyphs maps Latin characters that recognition engines
// drop into Cyrillic words back to their Cyrillic twins. Each pattern
// requires Cyrillic context on both sides, so genuine Latin words are
// left alone. Order matters: earlier replacements feed later patterns.
var cyrillicHomoglyphs = buildHomoglyphs([][2]string{
	{"a", "а"}, {"e", "е"}, {"o", "о"}, {"p", "р"},
	{"c", "с"}, {"y", "у"}, {"x", "х"}, {"B", "В"},
	{"H", "Н"}, {"K", "К"}, {"M", "М"}, {"T", "Т"},
})

func buildHomoglyphs(pairs [][2]string) []homoglyph {
	out := make([]homoglyph, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, homoglyph{
			re:          regexp.MustCompile(`([а-яА-ЯёЁ])` + regexp.QuoteMeta(p[0]) + `([а-яА-ЯёЁ])`),
			replacement: "${1}" + p[1] + "${2}",
		})
	}
	return out
}

// FixMixedScript repairs Latin homoglyphs embedded inside Cyrillic
// words.
func FixMixedScript(text string) string {
	for _, h := range cyrillicHomoglyphs {
		text = h.re.ReplaceAllString(text, h.replacement)
	}
	return text
}
