package track

import (
	"fmt"
	"slices"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// SortAndRelabel stable-sorts features by their start_date property and
// reassigns the color index to 0..n-1 in that order.
//
// Every feature must carry a string start_date. When one does not, an error is
// returned and the features are left exactly as they were.
func SortAndRelabel(features []*geojson.Feature) error {
	type keyed struct {
		startDate string
		feature   *geojson.Feature
	}

	items := make([]keyed, len(features))
	for i, f := range features {
		if f == nil {
			return fmt.Errorf("feature %d is nil", i)
		}
		startDate, ok := f.Properties[PropStartDate].(string)
		if !ok {
			return fmt.Errorf("feature %d has no string %s property", i, PropStartDate)
		}
		items[i] = keyed{startDate: startDate, feature: f}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return strings.Compare(a.startDate, b.startDate)
	})

	for i, item := range items {
		features[i] = item.feature
		features[i].Properties[PropIndex] = i
	}
	return nil
}
