package filter

import "time"

const isoDate = "2006-01-02"

// ResolveDatePreset maps a symbolic token to a concrete date range anchored
// at now. The second return is false for unknown tokens, which callers must
// treat as a no-op rather than an error.
func ResolveDatePreset(token string, now time.Time) (DateRange, bool) {
	var from time.Time
	to := now

	switch token {
	case "today":
		from = now
	case "7d":
		from = now.AddDate(0, 0, -7)
	case "30d":
		from = now.AddDate(0, 0, -30)
	case "90d":
		from = now.AddDate(0, 0, -90)
	case "ytd":
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return DateRange{}, false
	}

	return DateRange{
		From: from.Format(isoDate),
		To:   to.Format(isoDate),
	}, true
}

// NamedPresets are the shareable deep-link presets surfaced in the UI.
func NamedPresets(now time.Time) map[string]Preset {
	last7, _ := ResolveDatePreset("7d", now)
	last30, _ := ResolveDatePreset("30d", now)

	return map[string]Preset{
		"executive": {
			Partial: Partial{
				DateRange:  &last30,
				Regions:    []string{"National Capital Region (NCR)"},
				Categories: []string{"Beverages", "Snacks", "Dairy"},
			},
		},
		"brand_manager": {
			Partial: Partial{
				DateRange: &last7,
				Brands:    []string{"Oishi", "Del Monte", "Champion"},
			},
		},
		"metro_manila": {
			Partial: Partial{
				DateRange: &last30,
				Regions:   []string{"National Capital Region (NCR)", "CALABARZON", "Central Luzon"},
			},
		},
	}
}
