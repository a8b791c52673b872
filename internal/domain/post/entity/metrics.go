package entity

// Metrics holds engagement counters for a published post
type Metrics struct {
	Views    int `json:"views"`
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

// MetricsUpdate carries freshly fetched counters. A nil field was absent from the vendor payload.
type MetricsUpdate struct {
	Views    *int
	Likes    *int
	Comments *int
	Shares   *int
}

// Merge applies the update over the stored counters: new value if present, else the old one.
// Absent fields never regress, and negative vendor values are clamped to zero.
func (m Metrics) Merge(u MetricsUpdate) Metrics {
	return Metrics{
		Views:    pick(u.Views, m.Views),
		Likes:    pick(u.Likes, m.Likes),
		Comments: pick(u.Comments, m.Comments),
		Shares:   pick(u.Shares, m.Shares),
	}
}

func pick(v *int, old int) int {
	if v == nil {
		return max(old, 0)
	}
	return max(*v, 0)
}
