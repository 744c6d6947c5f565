package billing

import (
	"encoding/json"
	"fmt"
)

// The stripe-go major in use predates the entitlements API, so the summary
// payload is decoded locally. Only the fields the state machine needs are
// mapped.
type activeEntitlementSummary struct {
	Customer     string `json:"customer"`
	Entitlements struct {
		Data []activeEntitlement `json:"data"`
	} `json:"entitlements"`
}

type activeEntitlement struct {
	ID        string     `json:"id"`
	LookupKey string     `json:"lookup_key"`
	Feature   featureRef `json:"feature"`
}

// featureRef handles both shapes the provider sends: a bare feature id
// string, or the expanded feature object.
type featureRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LookupKey string `json:"lookup_key"`
}

func (f *featureRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		f.ID = id
		return nil
	}

	type alias featureRef
	var full alias
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*f = featureRef(full)
	return nil
}

func parseEntitlementSummary(raw json.RawMessage) (*activeEntitlementSummary, error) {
	var summary activeEntitlementSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode entitlement summary payload: %w", err)
	}

	// Entitlements without a lookup key fall back to the feature lookup key
	// when the feature object came expanded.
	for i := range summary.Entitlements.Data {
		e := &summary.Entitlements.Data[i]
		if e.LookupKey == "" {
			e.LookupKey = e.Feature.LookupKey
		}
	}
	return &summary, nil
}
