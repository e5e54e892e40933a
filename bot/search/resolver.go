package search

import (
	"context"
	"strings"

	"github.com/oponexis/tirebot/store"
)

// Tier names which precision level of the matching policy produced the
// result set.
type Tier string

const (
	TierRecentNoQuery Tier = "recent_no_query"
	TierStrict        Tier = "strict"
	TierLoose         Tier = "loose"
)

const (
	// InlineResultLimit caps inline query answers.
	InlineResultLimit = 10
	// DialogResultLimit caps text-driven search dialog answers.
	DialogResultLimit = 5
)

// BatchFinder is the slice of the store the resolver needs.
type BatchFinder interface {
	ListTireBatches(ctx context.Context, find *store.FindTireBatch) ([]*store.TireBatch, error)
}

type Resolver struct {
	finder BatchFinder
}

func NewResolver(finder BatchFinder) *Resolver {
	return &Resolver{finder: finder}
}

// Resolve turns a free-text query into for-sale batches, trading recall
// for precision tier by tier:
//
//  1. Empty query: the most recent STOCK batches.
//  2. Strict: AND of every present signal plus the residual-text OR group.
//  3. Full-size guard: a query carrying both width and height never
//     loosens; an exact size like "205/55" must not surface neighboring
//     sizes as if they matched.
//  4. Loose: season and/or text only, size dropped.
//
// An exhausted policy returns an empty set, not an error.
func (r *Resolver) Resolve(ctx context.Context, query string, limit int) ([]*store.TireBatch, Tier, error) {
	stock := store.TireTypeStock

	if strings.TrimSpace(query) == "" {
		batches, err := r.finder.ListTireBatches(ctx, &store.FindTireBatch{
			Type:          &stock,
			WithMainPhoto: true,
			Limit:         &limit,
		})
		return batches, TierRecentNoQuery, err
	}

	parsed := ParseQuery(query)

	strict := &store.FindTireBatch{
		Type:          &stock,
		RimDiameter:   parsed.RimDiameter,
		Width:         parsed.Width,
		Height:        parsed.Height,
		Season:        parsed.Season,
		WithMainPhoto: true,
		Limit:         &limit,
	}
	if parsed.Text != "" {
		strict.TextQuery = &parsed.Text
	}
	batches, err := r.finder.ListTireBatches(ctx, strict)
	if err != nil {
		return nil, TierStrict, err
	}
	if len(batches) > 0 {
		return batches, TierStrict, nil
	}

	if parsed.Width != nil && parsed.Height != nil {
		return nil, TierStrict, nil
	}
	if parsed.Season == nil && parsed.Text == "" {
		return nil, TierStrict, nil
	}

	loose := &store.FindTireBatch{
		Type:          &stock,
		Season:        parsed.Season,
		WithMainPhoto: true,
		Limit:         &limit,
	}
	if parsed.Text != "" {
		loose.TextQuery = &parsed.Text
	}
	batches, err = r.finder.ListTireBatches(ctx, loose)
	if err != nil {
		return nil, TierLoose, err
	}
	return batches, TierLoose, nil
}

// SoftSearch drives the text search dialog. It spans the whole inventory,
// storage included. A season-only query filters by season alone; a query
// carrying a complete size pins width and height exactly; everything else
// falls back to per-token matching, where numeric tokens deliberately OR
// across rim, width, height, and production year at once, since a
// standalone number is ambiguous between a size and a year.
func (r *Resolver) SoftSearch(ctx context.Context, query string, limit int) ([]*store.TireBatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	season := DetectSeason(query)
	residual := StripSeasonWords(query)

	if season != nil && residual == "" {
		return r.finder.ListTireBatches(ctx, &store.FindTireBatch{
			Season:        season,
			WithMainPhoto: true,
			Limit:         &limit,
		})
	}

	width, height, rimDiameter := ParseSize(query)
	if width != nil && height != nil {
		return r.finder.ListTireBatches(ctx, &store.FindTireBatch{
			Width:         width,
			Height:        height,
			RimDiameter:   rimDiameter,
			Season:        season,
			WithMainPhoto: true,
			Limit:         &limit,
		})
	}

	// The whole query rides along as a fallback text token.
	tokens := append(Tokenize(residual), store.SearchToken{Text: query})
	return r.finder.ListTireBatches(ctx, &store.FindTireBatch{
		Tokens:        tokens,
		Season:        season,
		WithMainPhoto: true,
		Limit:         &limit,
	})
}
