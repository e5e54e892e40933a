package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oponexis/tirebot/store"
)

// recordingFinder logs every predicate it receives and answers each call
// from a queue of canned result sets.
type recordingFinder struct {
	finds   []*store.FindTireBatch
	results [][]*store.TireBatch
}

func (f *recordingFinder) ListTireBatches(_ context.Context, find *store.FindTireBatch) ([]*store.TireBatch, error) {
	f.finds = append(f.finds, find)
	if len(f.results) == 0 {
		return nil, nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result, nil
}

func TestResolveRecentNoQuery(t *testing.T) {
	finder := &recordingFinder{results: [][]*store.TireBatch{{{ID: "b1"}}}}
	resolver := NewResolver(finder)

	batches, tier, err := resolver.Resolve(context.Background(), "  ", InlineResultLimit)
	require.NoError(t, err)
	require.Equal(t, TierRecentNoQuery, tier)
	require.Len(t, batches, 1)

	require.Len(t, finder.finds, 1)
	find := finder.finds[0]
	require.Equal(t, store.TireTypeStock, *find.Type)
	require.Nil(t, find.Width)
	require.Nil(t, find.TextQuery)
	require.Equal(t, InlineResultLimit, *find.Limit)
}

func TestResolveStrictHit(t *testing.T) {
	finder := &recordingFinder{results: [][]*store.TireBatch{{{ID: "b1"}}}}
	resolver := NewResolver(finder)

	batches, tier, err := resolver.Resolve(context.Background(), "205/55 R16 zima Michelin", InlineResultLimit)
	require.NoError(t, err)
	require.Equal(t, TierStrict, tier)
	require.Len(t, batches, 1)

	require.Len(t, finder.finds, 1)
	find := finder.finds[0]
	require.Equal(t, store.TireTypeStock, *find.Type)
	require.Equal(t, 205, *find.Width)
	require.Equal(t, 55, *find.Height)
	require.Equal(t, 16, *find.RimDiameter)
	require.Equal(t, store.SeasonWinter, *find.Season)
	require.Equal(t, "MICHELIN", *find.TextQuery)
}

func TestResolveFullSizeGuard(t *testing.T) {
	// Strict misses and the query carried a complete size, so the
	// resolver must stop without attempting a loosened predicate.
	finder := &recordingFinder{}
	resolver := NewResolver(finder)

	batches, tier, err := resolver.Resolve(context.Background(), "205/55 zima", InlineResultLimit)
	require.NoError(t, err)
	require.Equal(t, TierStrict, tier)
	require.Empty(t, batches)
	require.Len(t, finder.finds, 1)
}

func TestResolveLoose(t *testing.T) {
	finder := &recordingFinder{results: [][]*store.TireBatch{nil, {{ID: "b2"}}}}
	resolver := NewResolver(finder)

	batches, tier, err := resolver.Resolve(context.Background(), "R16 zima", InlineResultLimit)
	require.NoError(t, err)
	require.Equal(t, TierLoose, tier)
	require.Len(t, batches, 1)

	require.Len(t, finder.finds, 2)
	strict, loose := finder.finds[0], finder.finds[1]
	require.Equal(t, 16, *strict.RimDiameter)
	require.Nil(t, loose.RimDiameter)
	require.Equal(t, store.SeasonWinter, *loose.Season)
}

func TestResolveNothingToLoosen(t *testing.T) {
	// A rim-only query has no season or text to fall back on.
	finder := &recordingFinder{}
	resolver := NewResolver(finder)

	batches, tier, err := resolver.Resolve(context.Background(), "R16", InlineResultLimit)
	require.NoError(t, err)
	require.Equal(t, TierStrict, tier)
	require.Empty(t, batches)
	require.Len(t, finder.finds, 1)
}

func TestSoftSearchTokens(t *testing.T) {
	finder := &recordingFinder{results: [][]*store.TireBatch{{{ID: "b1"}, {ID: "b2"}}}}
	resolver := NewResolver(finder)

	batches, err := resolver.SoftSearch(context.Background(), "16 michelin", DialogResultLimit)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	require.Len(t, finder.finds, 1)
	find := finder.finds[0]
	require.Nil(t, find.Type)
	require.Equal(t, DialogResultLimit, *find.Limit)
	require.Len(t, find.Tokens, 3)
	require.Equal(t, 16, *find.Tokens[0].Number)
	require.Equal(t, "michelin", find.Tokens[1].Text)
	require.Equal(t, "16 michelin", find.Tokens[2].Text)

	batches, err = resolver.SoftSearch(context.Background(), "", DialogResultLimit)
	require.NoError(t, err)
	require.Empty(t, batches)
	require.Len(t, finder.finds, 1)
}

func TestSoftSearchSeasonOnly(t *testing.T) {
	finder := &recordingFinder{results: [][]*store.TireBatch{{{ID: "b1"}}}}
	resolver := NewResolver(finder)

	_, err := resolver.SoftSearch(context.Background(), "zima", DialogResultLimit)
	require.NoError(t, err)

	require.Len(t, finder.finds, 1)
	find := finder.finds[0]
	require.Equal(t, store.SeasonWinter, *find.Season)
	require.Empty(t, find.Tokens)
	require.Nil(t, find.Width)
}

func TestSoftSearchFullSize(t *testing.T) {
	// A complete size pins width and height exactly; no broad numeric OR.
	finder := &recordingFinder{results: [][]*store.TireBatch{{{ID: "b1"}}}}
	resolver := NewResolver(finder)

	_, err := resolver.SoftSearch(context.Background(), "205/55 r17 lato", DialogResultLimit)
	require.NoError(t, err)

	require.Len(t, finder.finds, 1)
	find := finder.finds[0]
	require.Equal(t, 205, *find.Width)
	require.Equal(t, 55, *find.Height)
	require.Equal(t, 17, *find.RimDiameter)
	require.Equal(t, store.SeasonSummer, *find.Season)
	require.Empty(t, find.Tokens)
}
