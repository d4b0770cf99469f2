// Package menu derives the day-dependent display catalog from the raw
// fetched one. Resolution is deterministic: same catalog and date in,
// same catalog out.
package menu

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/guadalajara-pos/api/internal/model"
)

// Friday-only specials. They are appended client-side when the remote
// catalog does not already carry an entry with the exact same name, and
// use fixed synthesized ids so resolution stays reproducible.
var specials = []model.MenuEntry{
	{ID: "special-cocido-boyacense", Name: "Cocido Boyacense", UnitPrice: decimal.NewFromInt(18000)},
	{ID: "special-chanfaina", Name: "Chanfaina", UnitPrice: decimal.NewFromInt(13000)},
}

// Resolve merges date-conditional specials into the catalog and sorts it
// for display. The dedupe check is exact-case on name; the sort is
// Spanish-locale and case-insensitive.
func Resolve(catalog []model.MenuEntry, date time.Time) []model.MenuEntry {
	resolved := make([]model.MenuEntry, len(catalog))
	copy(resolved, catalog)

	if date.Weekday() == time.Friday {
		for _, sp := range specials {
			if !containsName(resolved, sp.Name) {
				resolved = append(resolved, sp)
			}
		}
	}

	c := collate.New(language.Spanish, collate.IgnoreCase)
	sort.SliceStable(resolved, func(i, j int) bool {
		return c.CompareString(resolved[i].Name, resolved[j].Name) < 0
	})
	return resolved
}

// Search filters by case-insensitive substring match on name. An empty
// query returns the catalog unchanged, order preserved.
func Search(catalog []model.MenuEntry, query string) []model.MenuEntry {
	if query == "" {
		return catalog
	}
	q := strings.ToLower(query)
	matched := make([]model.MenuEntry, 0, len(catalog))
	for _, e := range catalog {
		if strings.Contains(strings.ToLower(e.Name), q) {
			matched = append(matched, e)
		}
	}
	return matched
}

func containsName(entries []model.MenuEntry, name string) bool {
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}
