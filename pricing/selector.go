package pricing

import (
	"errors"

	"pl_adjuster/models"
)

// ErrNoListings is returned when an explicit id selection matches
// nothing among the fetched listings.
var ErrNoListings = errors.New("no listings found with the given ids")

// SelectListings filters the full listing set down to what a run should
// touch: visible, push-enabled, and optionally restricted to explicit
// ids or a single PMS. The id restriction wins over the PMS filter.
func SelectListings(listings []models.Listing, ids []string, pms string) ([]models.Listing, error) {
	var active []models.Listing
	for _, l := range listings {
		if l.Hidden || !l.PushEnabled {
			continue
		}
		active = append(active, l)
	}

	if len(ids) > 0 {
		want := make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		var selected []models.Listing
		for _, l := range active {
			if want[l.ID.String()] {
				selected = append(selected, l)
			}
		}
		if len(selected) == 0 {
			return nil, ErrNoListings
		}
		return selected, nil
	}

	if pms != "" {
		var selected []models.Listing
		for _, l := range active {
			if l.PMS == pms {
				selected = append(selected, l)
			}
		}
		return selected, nil
	}

	return active, nil
}
