package correct

import (
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/pkg/logging"
)

// frequencyFloor rejects suggestions from the rare tail of the
// dictionary so tokens are never "corrected" into corpus noise.
const frequencyFloor = 10

// Corrector runs the three-stage deterministic repair of recognition
// output: pattern fixups, dictionary correction, cleanup.
type Corrector struct {
	language string
	dict     *Dictionary
	cyrillic bool
	logger   zerolog.Logger
}

// New builds a corrector for a recognition language. English loads the
// embedded frequency dictionary; for other languages the dictionary
// stage is silently disabled and only pattern and cleanup stages run.
func New(language string) *Corrector {
	c := &Corrector{
		language: language,
		cyrillic: isCyrillicLanguage(language),
		logger:   logging.GetLogger("corrector"),
	}

	switch primaryLanguage(language) {
	case "eng", "en":
		dict, err := DefaultEnglishDictionary()
		if err != nil {
			c.logger.Debug().Err(err).Msg("Dictionary unavailable, pattern correction only")
			return c
		}
		c.dict = dict
		c.logger.Debug().Int("terms", dict.Len()).Msg("Loaded English dictionary for spell correction")
	default:
		c.logger.Debug().Str("language", language).Msg("Spell correction not available for language")
	}
	return c
}

// NewWithDictionary builds a corrector around a caller-supplied
// dictionary, for languages with a user-provided frequency list.
func NewWithDictionary(language string, dict *Dictionary) *Corrector {
	return &Corrector{
		language: language,
		dict:     dict,
		cyrillic: isCyrillicLanguage(language),
		logger:   logging.GetLogger("corrector"),
	}
}

// Correct applies the repair stages in order. Empty input is returned
// unchanged; the result never gains leading or trailing whitespace.
func (c *Corrector) Correct(text string, aggressive bool) string {
	if text == "" {
		return text
	}
	original := text

	text = fixObviousErrors(text)
	if c.cyrillic {
		text = FixMixedScript(text)
	}
	if c.dict != nil {
		text = c.spellCorrect(text, aggressive)
	}
	text = finalCleanup(text)

	if text != original {
		c.logger.Debug().Msg("Applied text corrections")
	}
	return text
}

// spellCorrect replaces misrecognized tokens line by line, preserving
// line boundaries while normalizing in-line whitespace.
func (c *Corrector) spellCorrect(text string, aggressive bool) string {
	maxDist := 1
	if aggressive {
		maxDist = 2
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		for j, w := range words {
			words[j] = c.correctToken(w, maxDist)
		}
		lines[i] = strings.Join(words, " ")
	}
	return strings.Join(lines, "\n")
}

func (c *Corrector) correctToken(word string, maxDist int) string {
	runes := []rune(word)
	if len(runes) < 3 || !containsLetter(runes) {
		return word
	}

	// Peel the punctuation wrapper; it is reattached untouched.
	start, end := 0, len(runes)
	for start < end && !isAlnum(runes[start]) {
		start++
	}
	for end > start && !isAlnum(runes[end-1]) {
		end--
	}
	if start == end {
		return word
	}
	core := runes[start:end]

	suggestions := c.dict.Lookup(strings.ToLower(string(core)), maxDist)
	if len(suggestions) == 0 {
		return word
	}

	s := suggestions[0]
	if s.Distance == 0 || s.Count <= frequencyFloor {
		return word
	}

	corrected := s.Term
	if isAllUpper(core) {
		corrected = strings.ToUpper(corrected)
	} else if unicode.IsUpper(core[0]) {
		corrected = capitalize(corrected)
	}
	return string(runes[:start]) + corrected + string(runes[end:])
}

// finalCleanup collapses repeated spaces, strips lines and drops the
// empty ones.
func finalCleanup(text string) string {
	text = multiSpaceRe.ReplaceAllString(text, " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func primaryLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(lang, "+")[0]))
}

func isCyrillicLanguage(lang string) bool {
	switch primaryLanguage(lang) {
	case "rus", "ru", "ukr", "bel", "bul", "srp", "mkd":
		return true
	default:
		return false
	}
}

func containsLetter(runes []rune) bool {
	for _, r := range runes {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isAllUpper reports whether runes hold at least one cased letter and
// no lowercase ones.
func isAllUpper(runes []rune) bool {
	hasUpper := false
	for _, r := range runes {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
