package fusion

import (
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/pkg/logging"
	"github.com/dkorbelainen/sniptext/pkg/ocr"
)

// Script selects which alphabet counts as "real text" during line
// scoring. Captures are usually dominated by one script, derived from
// the configured recognition language.
type Script int

const (
	ScriptLatin Script = iota
	ScriptCyrillic
)

// ScriptForLanguage maps a Tesseract-style language code (possibly a
// "+"-joined list, first entry wins) to the preferred script.
func ScriptForLanguage(lang string) Script {
	primary := strings.ToLower(strings.TrimSpace(strings.Split(lang, "+")[0]))
	switch primary {
	case "rus", "ukr", "bel", "bul", "srp", "mkd":
		return ScriptCyrillic
	default:
		return ScriptLatin
	}
}

// Fused is the merged transcript. Measured reports whether Confidence
// carries a real agreement signal; with fewer than two sources there
// is nothing to agree on and Confidence stays zero.
type Fused struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Measured   bool    `json:"measured"`
}

// Engine merges transcripts from independent backends by line-level
// voting.
type Engine struct {
	script Script
	logger zerolog.Logger
}

func New(script Script) *Engine {
	return &Engine{script: script, logger: logging.GetLogger("fusion")}
}

// Fuse combines backend results. Zero results produce an empty
// transcript, a single result passes through untouched, and two or
// more are merged line by line with the best-scoring variant winning
// each line. Inputs are never modified.
func (e *Engine) Fuse(results []ocr.Result) Fused {
	if len(results) == 0 {
		return Fused{}
	}
	if len(results) == 1 {
		return Fused{Text: results[0].Text}
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	confidence := agreementConfidence(texts)

	e.logger.Info().
		Int("sources", len(results)).
		Float64("agreement", confidence).
		Msg("Combining recognition results")

	var contributing [][]string
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		contributing = append(contributing, strings.Split(t, "\n"))
	}
	if len(contributing) == 0 {
		return Fused{Confidence: confidence, Measured: true}
	}

	maxLines := 0
	for _, lines := range contributing {
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}

	// Vote per line index. Sources that ran out of lines simply do not
	// vote; short transcripts are never padded.
	combined := make([]string, 0, maxLines)
	for idx := 0; idx < maxLines; idx++ {
		var variants []string
		for _, lines := range contributing {
			if idx < len(lines) {
				variants = append(variants, lines[idx])
			}
		}
		if len(variants) == 0 {
			continue
		}
		best := e.pickBestLine(variants)
		if strings.TrimSpace(best) != "" {
			combined = append(combined, best)
		}
	}

	return Fused{
		Text:       strings.Join(combined, "\n"),
		Confidence: confidence,
		Measured:   true,
	}
}

// pickBestLine selects among variants of the same line. Candidates are
// compared in stripped form; the first highest scorer wins.
func (e *Engine) pickBestLine(variants []string) string {
	if len(variants) == 1 {
		return variants[0]
	}

	stripped := make([]string, 0, len(variants))
	for _, v := range variants {
		if s := strings.TrimSpace(v); s != "" {
			stripped = append(stripped, s)
		}
	}
	if len(stripped) == 0 {
		return ""
	}
	if len(stripped) == 1 {
		return stripped[0]
	}

	best := stripped[0]
	bestScore := e.scoreLine(stripped[0])
	for _, v := range stripped[1:] {
		if score := e.scoreLine(v); score > bestScore {
			best, bestScore = v, score
		}
	}

	e.logger.Debug().
		Float64("score", bestScore).
		Str("line", truncate(best, 50)).
		Msg("Selected line variant")
	return best
}

// scoreLine rates one stripped candidate: completeness by length,
// sentence-final punctuation, density of preferred-script letters, and
// penalties for the classic recognition artifacts of a leading stray
// digit or isolated capital.
func (e *Engine) scoreLine(v string) float64 {
	runes := []rune(v)
	score := 0.1 * float64(len(runes))

	switch runes[len(runes)-1] {
	case '.', '!', '?', ':', ',':
		score += 10
	}

	letters := 0
	for _, r := range runes {
		if e.isPreferredLetter(r) {
			letters++
		}
	}
	score += 0.2 * float64(letters)

	if unicode.IsDigit(runes[0]) {
		score -= 5
	}
	if len(runes) > 1 && runes[1] == ' ' && unicode.IsUpper(runes[0]) {
		score -= 5
	}
	return score
}

func (e *Engine) isPreferredLetter(r rune) bool {
	if e.script == ScriptCyrillic {
		return (r >= 'а' && r <= 'я') || (r >= 'А' && r <= 'Я')
	}
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// agreementConfidence is the mean pairwise similarity over all result
// texts.
func agreementConfidence(texts []string) float64 {
	var sum float64
	pairs := 0
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			sum += similarityRatio(texts[i], texts[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// similarityRatio is 2*LCS/(len(a)+len(b)) over runes, 1.0 for two
// empty strings.
func similarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(lcsLength(ra, rb)) / float64(total)
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
