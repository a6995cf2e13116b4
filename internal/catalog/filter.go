package catalog

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/stavren/modelsync/internal/domain"
)

// Filter narrows an already-fetched page by fuzzy-matching model names,
// best matches first. An empty query returns the input unchanged.
func Filter(models []domain.Model, query string) []domain.Model {
	if query == "" {
		return models
	}

	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	matched := make([]domain.Model, 0, len(ranks))
	for _, r := range ranks {
		matched = append(matched, models[r.OriginalIndex])
	}
	return matched
}
