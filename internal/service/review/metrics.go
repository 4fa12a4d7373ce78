package review

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"math"
)

type Dimension string

const (
	Communication Dimension = "communication"
	Packaging     Dimension = "packaging"
	Quality       Dimension = "quality"
	Value         Dimension = "value"
	Location      Dimension = "location"
	Punctuality   Dimension = "punctuality"
)

const (
	MinRating = 1
	MaxRating = 5
)

var ProductDimensions = []Dimension{Communication, Packaging, Quality, Value}
var ServiceDimensions = []Dimension{Communication, Location, Punctuality, Value}

// Ratings holds the sub-ratings of a single review. A nil or missing entry
// means the reviewer left that dimension blank.
type Ratings map[Dimension]*int

func valid(v *int) bool {
	return v != nil && *v >= MinRating && *v <= MaxRating
}

// Validate rejects a review with no ratings at all or with a rating outside
// 1..5.
func Validate(r Ratings) error {
	present := 0
	for _, v := range r {
		if v == nil {
			continue
		}
		if !valid(v) {
			return app_errors.ErrRatingOutOfRange
		}
		present++
	}
	if present == 0 {
		return app_errors.ErrEmptyReview
	}
	return nil
}

// Aggregate computes per-dimension averages, the overall score and the star
// histogram. It returns nil when there are no reviews. Values outside 1..5
// are treated as absent.
func Aggregate(dims []Dimension, reviews []Ratings) *models.ReviewMetrics {
	if len(reviews) == 0 {
		return nil
	}

	sums := make(map[Dimension]int, len(dims))
	counts := make(map[Dimension]int, len(dims))
	m := &models.ReviewMetrics{
		Averages: make(map[string]float64, len(dims)),
		Count:    len(reviews),
	}

	for _, r := range reviews {
		total, n := 0, 0
		for _, d := range dims {
			v := r[d]
			if !valid(v) {
				continue
			}
			sums[d] += *v
			counts[d]++
			total += *v
			n++
		}
		if n == 0 {
			continue
		}
		bucket := int(math.Round(float64(total) / float64(n)))
		m.Histogram[bucket-1]++
	}

	var sum float64
	nonzero := 0
	for _, d := range dims {
		var avg float64
		if counts[d] > 0 {
			avg = float64(sums[d]) / float64(counts[d])
		}
		m.Averages[string(d)] = avg
		if avg > 0 {
			sum += avg
			nonzero++
		}
	}
	if nonzero > 0 {
		m.Overall = math.Round(sum/float64(nonzero)*10) / 10
	}
	return m
}

func ProductRatings(r models.ProductReview) Ratings {
	return Ratings{
		Communication: r.Communication,
		Packaging:     r.Packaging,
		Quality:       r.Quality,
		Value:         r.Value,
	}
}

func ServiceRatings(r models.ServiceReview) Ratings {
	return Ratings{
		Communication: r.Communication,
		Location:      r.Location,
		Punctuality:   r.Punctuality,
		Value:         r.Value,
	}
}

func ProductMetrics(reviews []models.ProductReview) *models.ReviewMetrics {
	rs := make([]Ratings, 0, len(reviews))
	for _, r := range reviews {
		rs = append(rs, ProductRatings(r))
	}
	return Aggregate(ProductDimensions, rs)
}

func ServiceMetrics(reviews []models.ServiceReview) *models.ReviewMetrics {
	rs := make([]Ratings, 0, len(reviews))
	for _, r := range reviews {
		rs = append(rs, ServiceRatings(r))
	}
	return Aggregate(ServiceDimensions, rs)
}
