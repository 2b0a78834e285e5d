package cache

import "fmt"

// Report is a point-in-time description of one store, for diagnostics.
type Report struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Options Options `json:"options"`
}

func (r Report) String() string {
	return fmt.Sprintf("%s: %d/%d entries, ttl=%s", r.Name, r.Count, r.Options.Capacity, r.Options.ExpiryTime)
}
