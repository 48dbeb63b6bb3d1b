package strava

import (
	"context"
	"log/slog"
	"sort"
)

// ListRecentActivities fetches pages 1..maxPages with perPage items each and
// returns all of them sorted ascending by start date.
//
// The page count is fixed: a short or empty page does not end the loop, so the
// history is capped at maxPages*perPage and small accounts pay for empty pages.
func ListRecentActivities(ctx context.Context, client Client, maxPages, perPage int) ([]Activity, error) {
	var all []Activity
	for page := 1; page <= maxPages; page++ {
		activities, err := client.ListActivities(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		if len(activities) < perPage {
			slog.DebugContext(ctx, "Activity page shorter than requested, continuing with fixed page count",
				"page", page, "count", len(activities), "per_page", perPage)
		}
		all = append(all, activities...)
	}

	SortByStartDate(all)
	return all, nil
}

// SortByStartDate sorts activities ascending by their start date string.
// The sort is stable, so activities with equal start dates keep their listing order.
func SortByStartDate(activities []Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].StartDate < activities[j].StartDate
	})
}
