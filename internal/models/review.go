package models

// ReviewMetrics is the aggregate over a set of reviews. Averages are keyed by
// dimension name; Histogram[i] counts reviews whose own rounded average is i+1.
type ReviewMetrics struct {
	Averages  map[string]float64 `json:"averages"`
	Overall   float64            `json:"overall"`
	Histogram [5]int             `json:"histogram"`
	Count     int                `json:"count"`
}
