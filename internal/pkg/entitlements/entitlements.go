package entitlements

import (
	"sort"

	"github.com/FabianKeller/PlanCart/app/models"
)

// CanAccess reports whether a customer may use a feature. Suspension gates
// everything: parked entitlements grant nothing until the suspension lifts.
func CanAccess(c *models.Customer, lookupKey string) bool {
	if c == nil || c.Suspended || lookupKey == "" {
		return false
	}
	for _, e := range c.Entitlements {
		if e.LookupKey == lookupKey {
			return true
		}
	}
	return false
}

// ActiveFeatures returns the sorted lookup keys the customer can use right
// now. Empty while suspended.
func ActiveFeatures(c *models.Customer) []string {
	if c == nil || c.Suspended {
		return nil
	}

	keys := make([]string, 0, len(c.Entitlements))
	for _, e := range c.Entitlements {
		if e.LookupKey != "" {
			keys = append(keys, e.LookupKey)
		}
	}
	sort.Strings(keys)
	return keys
}
