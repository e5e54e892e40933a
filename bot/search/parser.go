// Package search extracts tire-size and season signals from free-text
// queries and resolves them against the batch store with a tiered
// strict-then-loose matching policy.
package search

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/oponexis/tirebot/store"
)

// ParsedQuery carries the signals extracted from one query string. Size,
// season, and text are extracted independently from the same input; only
// the residual text subtracts the recognized tokens.
type ParsedQuery struct {
	Width       *int
	Height      *int
	RimDiameter *int
	Season      *store.Season
	// Text is the residue after stripping size and season tokens,
	// empty when nothing remains.
	Text string
}

var (
	// "205.55" and "205,55" are the same size written with a decimal
	// separator; normalize collapses them to "205/55" first.
	decimalSizeRegexp = regexp.MustCompile(`(\d{3})\s*\.\s*(\d{2})`)
	fullSizeRegexp    = regexp.MustCompile(`(\d{3})\s*/\s*(\d{2})\s*R?\s*(\d{2})`)
	pairSizeRegexp    = regexp.MustCompile(`(\d{3})\s*/\s*(\d{2})`)
	rimRegexp         = regexp.MustCompile(`R\s*(\d{2})|(\d{2})\s*("|CALI|CAL)`)
	bareWidthRegexp   = regexp.MustCompile(`^(\d{3})$`)
	bareNumberRegexp  = regexp.MustCompile(`\b\d{3}\b`)
)

func normalize(text string) string {
	t := strings.ToUpper(strings.TrimSpace(text))
	t = strings.ReplaceAll(t, ",", ".")
	return decimalSizeRegexp.ReplaceAllString(t, "$1/$2")
}

// ParseSize pulls width/height/rim out of the text. Any field without a
// match comes back nil; the function never fails.
func ParseSize(text string) (width, height, rimDiameter *int) {
	t := normalize(text)

	if m := fullSizeRegexp.FindStringSubmatch(t); m != nil {
		width, height, rimDiameter = atoiRef(m[1]), atoiRef(m[2]), atoiRef(m[3])
		return width, height, rimDiameter
	}
	if m := pairSizeRegexp.FindStringSubmatch(t); m != nil {
		width, height = atoiRef(m[1]), atoiRef(m[2])
	}
	if m := rimRegexp.FindStringSubmatch(t); m != nil {
		if m[1] != "" {
			rimDiameter = atoiRef(m[1])
		} else {
			rimDiameter = atoiRef(m[2])
		}
	}
	if width == nil && height == nil && rimDiameter == nil {
		if m := bareWidthRegexp.FindStringSubmatch(t); m != nil {
			width = atoiRef(m[1])
		}
	}
	return width, height, rimDiameter
}

// Season vocabulary, substring-matched case-insensitively. Stems rather
// than full words so inflected forms like "zimowych" still match.
var seasonStems = []struct {
	stem   string
	season store.Season
}{
	{"zim", store.SeasonWinter},
	{"lato", store.SeasonSummer},
	{"letni", store.SeasonSummer},
	{"całoroczn", store.SeasonAllSeason},
	{"caloroczn", store.SeasonAllSeason},
	{"all season", store.SeasonAllSeason},
	{"allseason", store.SeasonAllSeason},
}

// DetectSeason returns the first season whose vocabulary matches, checked
// in winter, summer, all-season order. Nil when nothing matches.
func DetectSeason(text string) *store.Season {
	t := strings.ToLower(text)
	for _, entry := range seasonStems {
		if strings.Contains(t, entry.stem) {
			season := entry.season
			return &season
		}
	}
	return nil
}

// BuildResidualText strips everything the size grammar and the season
// vocabulary consumed and returns the collapsed remainder. An all-numeric
// or all-season-word query yields "".
func BuildResidualText(text string) string {
	t := normalize(text)
	t = fullSizeRegexp.ReplaceAllString(t, " ")
	t = pairSizeRegexp.ReplaceAllString(t, " ")
	t = rimRegexp.ReplaceAllString(t, " ")
	t = bareNumberRegexp.ReplaceAllString(t, " ")
	t = strings.ReplaceAll(t, "ALL SEASON", " ")

	words := strings.Fields(t)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if !isSeasonWord(word) {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

func isSeasonWord(word string) bool {
	w := strings.ToLower(word)
	for _, entry := range seasonStems {
		if strings.HasPrefix(w, entry.stem) {
			return true
		}
	}
	return false
}

// ParseQuery runs all three extractors over one query string.
func ParseQuery(text string) ParsedQuery {
	parsed := ParsedQuery{Text: BuildResidualText(text)}
	parsed.Width, parsed.Height, parsed.RimDiameter = ParseSize(text)
	parsed.Season = DetectSeason(text)
	return parsed
}

// HasSizeSignal reports whether any size field was determined.
func (q ParsedQuery) HasSizeSignal() bool {
	return q.Width != nil || q.Height != nil || q.RimDiameter != nil
}

var (
	seasonWordRegexp = regexp.MustCompile(`(?i)\b(zimowe|zima|letnie|lato|całoroczne|caloroczne|all season|allseason)\b`)
	separatorRegexp  = regexp.MustCompile(`[/.,]`)
)

// StripSeasonWords removes the season vocabulary from a query, leaving
// sizes and text intact.
func StripSeasonWords(text string) string {
	return strings.Join(strings.Fields(seasonWordRegexp.ReplaceAllString(text, " ")), " ")
}

// Tokenize splits a query into soft-search tokens: numbers match the
// numeric columns, words of at least two runes match the text columns.
// Size separators count as whitespace so "205/55" yields two numbers.
func Tokenize(text string) []store.SearchToken {
	var tokens []store.SearchToken
	for _, field := range strings.Fields(separatorRegexp.ReplaceAllString(text, " ")) {
		if n, err := strconv.Atoi(field); err == nil {
			num := n
			tokens = append(tokens, store.SearchToken{Number: &num})
		} else if utf8.RuneCountInString(field) >= 2 {
			tokens = append(tokens, store.SearchToken{Text: field})
		}
	}
	return tokens
}

func atoiRef(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
