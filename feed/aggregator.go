package feed

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vesaki/vesaki-server/models"
)

// Source is the product source the aggregator fans out to (the serp adapter
// in production).
type Source interface {
	Search(ctx context.Context, query string, count int) ([]models.ProductCard, error)
}

// Filter names for Fetch. "all" fans out across every category.
const (
	FilterAll       = "all"
	FilterTrending  = "trending"
	FilterNew       = "new"
	FilterEditorial = "editorial"
	FilterRandom    = "random"
)

// category queries issued per filter. Order matters for the "all" view:
// trending is listed first so it wins dedup ties.
var categoryQueries = map[string]string{
	FilterTrending:  "trending fashion apparel",
	FilterNew:       "new fashion arrivals",
	FilterEditorial: "editorial fashion picks",
	FilterRandom:    "fashion apparel",
}

const perCategoryCount = 5
const randomCount = 15
const singleFilterCount = 20

// Aggregator composes the feed out of categorical product-source queries.
type Aggregator struct {
	source Source
}

func New(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Fetch returns the feed for one filter. The "all" view issues the four
// categorical queries concurrently, joins them in category order and
// deduplicates by product id keeping the first occurrence.
func (a *Aggregator) Fetch(ctx context.Context, filter string) ([]models.ProductCard, error) {
	if filter == "" || filter == FilterAll {
		return a.fetchAll(ctx)
	}

	query, ok := categoryQueries[filter]
	if !ok {
		return nil, fmt.Errorf("unknown feed filter %q", filter)
	}
	return a.source.Search(ctx, query, singleFilterCount)
}

func (a *Aggregator) fetchAll(ctx context.Context) ([]models.ProductCard, error) {
	order := []string{FilterTrending, FilterNew, FilterEditorial, FilterRandom}
	batches := make([][]models.ProductCard, len(order))

	g, gctx := errgroup.WithContext(ctx)
	for i, filter := range order {
		count := perCategoryCount
		if filter == FilterRandom {
			count = randomCount
		}
		query := categoryQueries[filter]
		g.Go(func() error {
			cards, err := a.source.Search(gctx, query, count)
			if err != nil {
				return fmt.Errorf("feed %s fetch: %w", filter, err)
			}
			batches[i] = cards
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []models.ProductCard
	for _, batch := range batches {
		for _, card := range batch {
			if _, dup := seen[card.ID]; dup {
				continue
			}
			seen[card.ID] = struct{}{}
			out = append(out, card)
		}
	}
	return out, nil
}
