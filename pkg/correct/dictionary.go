package correct

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

//go:embed data/en_frequency.txt
var embeddedDictionaries embed.FS

const (
	// maxDictionaryEditDistance bounds the precomputed delete index.
	maxDictionaryEditDistance = 2
	// dictionaryPrefixLength truncates terms before delete generation,
	// trading a little recall at the tail for a much smaller index.
	dictionaryPrefixLength = 7
)

// Suggestion is one dictionary match for a misrecognized token.
type Suggestion struct {
	Term     string
	Distance int
	Count    int64
}

// Dictionary is a frequency-ranked term list with a delete-neighborhood
// index for bounded edit-distance lookup. Read-only after load.
type Dictionary struct {
	words   map[string]int64
	deletes map[string][]string
}

func NewDictionary() *Dictionary {
	return &Dictionary{
		words:   make(map[string]int64),
		deletes: make(map[string][]string),
	}
}

// DefaultEnglishDictionary loads the embedded English frequency list.
func DefaultEnglishDictionary() (*Dictionary, error) {
	f, err := embeddedDictionaries.Open("data/en_frequency.txt")
	if err != nil {
		return nil, fmt.Errorf("opening embedded dictionary: %w", err)
	}
	defer f.Close()

	d := NewDictionary()
	if err := d.Load(f); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadDictionaryFile reads a "term count" frequency list from disk.
func LoadDictionaryFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := NewDictionary()
	if err := d.Load(f); err != nil {
		return nil, fmt.Errorf("loading dictionary %s: %w", path, err)
	}
	return d, nil
}

// Load parses "term count" lines. Malformed lines are skipped.
func (d *Dictionary) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		count, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		d.Add(fields[0], count)
	}
	return scanner.Err()
}

// Add inserts a term with its corpus frequency and indexes its delete
// neighborhood.
func (d *Dictionary) Add(term string, count int64) {
	term = strings.ToLower(term)
	if term == "" {
		return
	}
	if _, exists := d.words[term]; !exists {
		for _, del := range deleteVariants(truncatePrefix(term), maxDictionaryEditDistance) {
			d.deletes[del] = append(d.deletes[del], term)
		}
	}
	d.words[term] = count
}

func (d *Dictionary) Len() int {
	return len(d.words)
}

// Lookup finds dictionary terms within maxEditDistance of input,
// returning only the closest distance tier, ordered by frequency. An
// exact dictionary hit short-circuits as the single zero-distance
// suggestion.
func (d *Dictionary) Lookup(input string, maxEditDistance int) []Suggestion {
	if maxEditDistance > maxDictionaryEditDistance {
		maxEditDistance = maxDictionaryEditDistance
	}
	input = strings.ToLower(input)

	if count, ok := d.words[input]; ok {
		return []Suggestion{{Term: input, Distance: 0, Count: count}}
	}
	if maxEditDistance <= 0 {
		return nil
	}

	inputRunes := []rune(input)
	seen := make(map[string]bool)
	var found []Suggestion

	for _, del := range deleteVariants(truncatePrefix(input), maxEditDistance) {
		for _, term := range d.deletes[del] {
			if seen[term] {
				continue
			}
			seen[term] = true

			dist := osaDistance(inputRunes, []rune(term), maxEditDistance)
			if dist < 0 {
				continue
			}
			found = append(found, Suggestion{Term: term, Distance: dist, Count: d.words[term]})
		}
	}
	if len(found) == 0 {
		return nil
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Distance != found[j].Distance {
			return found[i].Distance < found[j].Distance
		}
		if found[i].Count != found[j].Count {
			return found[i].Count > found[j].Count
		}
		return found[i].Term < found[j].Term
	})

	closest := found[0].Distance
	cut := len(found)
	for i, s := range found {
		if s.Distance != closest {
			cut = i
			break
		}
	}
	return found[:cut]
}

func truncatePrefix(term string) string {
	runes := []rune(term)
	if len(runes) <= dictionaryPrefixLength {
		return term
	}
	return string(runes[:dictionaryPrefixLength])
}

// deleteVariants returns term and every string reachable from it by
// up to depth single-rune deletions.
func deleteVariants(term string, depth int) []string {
	results := map[string]bool{term: true}
	frontier := []string{term}

	for level := 0; level < depth; level++ {
		var next []string
		for _, w := range frontier {
			runes := []rune(w)
			if len(runes) <= 1 {
				continue
			}
			for i := range runes {
				del := string(runes[:i]) + string(runes[i+1:])
				if !results[del] {
					results[del] = true
					next = append(next, del)
				}
			}
		}
		frontier = next
	}

	out := make([]string, 0, len(results))
	for w := range results {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
