package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oponexis/tirebot/store"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input       string
		width       *int
		height      *int
		rimDiameter *int
	}{
		{"205/55 R16", intRef(205), intRef(55), intRef(16)},
		{"205/55R16", intRef(205), intRef(55), intRef(16)},
		{"205 / 55 r 16", intRef(205), intRef(55), intRef(16)},
		{"205.55 R16", intRef(205), intRef(55), intRef(16)},
		{"205,55 R16", intRef(205), intRef(55), intRef(16)},
		{"205/55", intRef(205), intRef(55), nil},
		{"205.55", intRef(205), intRef(55), nil},
		{"205", intRef(205), nil, nil},
		{"R17", nil, nil, intRef(17)},
		{"17 cali", nil, nil, intRef(17)},
		{`17"`, nil, nil, intRef(17)},
		{"205/55 zima Michelin", intRef(205), intRef(55), nil},
		{"nic", nil, nil, nil},
		{"", nil, nil, nil},
	}

	for _, test := range tests {
		width, height, rimDiameter := ParseSize(test.input)
		require.Equal(t, test.width, width, "width of %q", test.input)
		require.Equal(t, test.height, height, "height of %q", test.input)
		require.Equal(t, test.rimDiameter, rimDiameter, "rim of %q", test.input)
	}
}

func TestDetectSeason(t *testing.T) {
	winter := store.SeasonWinter
	summer := store.SeasonSummer
	allSeason := store.SeasonAllSeason

	tests := []struct {
		input    string
		expected *store.Season
	}{
		{"Szukam opon zimowych", &winter},
		{"zima", &winter},
		{"letnie koła", &summer},
		{"opony na lato", &summer},
		{"całoroczne", &allSeason},
		{"caloroczne", &allSeason},
		{"all season 16", &allSeason},
		// Winter is checked first.
		{"zima i lato", &winter},
		{"nic", nil},
		{"", nil},
	}

	for _, test := range tests {
		require.Equal(t, test.expected, DetectSeason(test.input), "season of %q", test.input)
	}
}

func TestBuildResidualText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"205/55 R16 zima Michelin", "MICHELIN"},
		{"Michelin Pilot Sport", "MICHELIN PILOT SPORT"},
		{"205/55", ""},
		{"205", ""},
		{"zima", ""},
		{"all season", ""},
		{"  Continental   zimowe  ", "CONTINENTAL"},
		{"", ""},
	}

	for _, test := range tests {
		require.Equal(t, test.expected, BuildResidualText(test.input), "residue of %q", test.input)
	}
}

func TestParseQuery(t *testing.T) {
	winter := store.SeasonWinter

	parsed := ParseQuery("205/55 R16 zima Michelin")
	require.Equal(t, ParsedQuery{
		Width:       intRef(205),
		Height:      intRef(55),
		RimDiameter: intRef(16),
		Season:      &winter,
		Text:        "MICHELIN",
	}, parsed)
	require.True(t, parsed.HasSizeSignal())

	parsed = ParseQuery("nic takiego")
	require.False(t, parsed.HasSizeSignal())
	require.Nil(t, parsed.Season)
	require.Equal(t, "NIC TAKIEGO", parsed.Text)
}

func TestTokenize(t *testing.T) {
	// Single-rune words are dropped, size separators split into numbers.
	tokens := Tokenize("205/55 michelin x")
	require.Len(t, tokens, 3)
	require.Equal(t, 205, *tokens[0].Number)
	require.Equal(t, 55, *tokens[1].Number)
	require.Equal(t, "michelin", tokens[2].Text)

	require.Empty(t, Tokenize("   "))
}

func TestStripSeasonWords(t *testing.T) {
	require.Equal(t, "205/55 R16 Michelin", StripSeasonWords("205/55 R16 zima Michelin"))
	require.Equal(t, "", StripSeasonWords("lato"))
	require.Equal(t, "", StripSeasonWords("all season"))
	// Inflected forms survive; the soft search treats them as text.
	require.Equal(t, "zimowych", StripSeasonWords("zimowych"))
}

func intRef(n int) *int {
	return &n
}
