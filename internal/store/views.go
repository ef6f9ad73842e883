package store

import (
	"sort"

	"github.com/desertthunder/nbx/internal/models"
)

// RecentLimit is the number of notebooks shown on the dashboard.
const RecentLimit int = 6

// Active returns the notebooks that are not archived, in their original order.
func Active(notebooks []models.Notebook) []models.Notebook {
	return filter(notebooks, func(nb models.Notebook) bool { return !nb.Archived })
}

// Archived returns the archived notebooks, in their original order.
func Archived(notebooks []models.Notebook) []models.Notebook {
	return filter(notebooks, func(nb models.Notebook) bool { return nb.Archived })
}

// Recent returns up to limit active notebooks, most recently updated first.
//
// Ties keep their original order. A non-positive limit returns every active notebook.
func Recent(notebooks []models.Notebook, limit int) []models.Notebook {
	active := Active(notebooks)
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Updated.After(active[j].Updated.Time)
	})

	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}
	return active
}

// ComputeStats derives the dashboard counters. Totals include archived notebooks.
func ComputeStats(notebooks []models.Notebook) models.Stats {
	stats := models.Stats{ActiveNotebooks: len(Active(notebooks))}
	for _, nb := range notebooks {
		stats.TotalSources += nb.SourcesCount
		stats.AIInsights += nb.InsightsCount
		stats.PodcastsGenerated += nb.PodcastsCount
	}
	return stats
}

func filter(notebooks []models.Notebook, keep func(models.Notebook) bool) []models.Notebook {
	out := make([]models.Notebook, 0, len(notebooks))
	for _, nb := range notebooks {
		if keep(nb) {
			out = append(out, nb)
		}
	}
	return out
}
