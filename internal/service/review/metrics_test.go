package review

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int) *int { return &v }

func TestAggregate_Empty(t *testing.T) {
	assert.Nil(t, Aggregate(ProductDimensions, nil))
	assert.Nil(t, ProductMetrics([]models.ProductReview{}))
	assert.Nil(t, ServiceMetrics(nil))
}

func TestAggregate_Averages(t *testing.T) {
	reviews := []Ratings{
		{Communication: ptr(5), Packaging: ptr(4), Quality: ptr(3), Value: ptr(4)},
		{Communication: ptr(3), Packaging: nil, Quality: ptr(5)},
	}

	m := Aggregate(ProductDimensions, reviews)
	require.NotNil(t, m)

	assert.Equal(t, 2, m.Count)
	assert.InDelta(t, 4.0, m.Averages["communication"], 1e-9)
	assert.InDelta(t, 4.0, m.Averages["packaging"], 1e-9)
	assert.InDelta(t, 4.0, m.Averages["quality"], 1e-9)
	assert.InDelta(t, 4.0, m.Averages["value"], 1e-9)
	assert.Equal(t, 4.0, m.Overall)
	// 16/4 = 4 and 8/2 = 4
	assert.Equal(t, [5]int{0, 0, 0, 2, 0}, m.Histogram)
}

func TestAggregate_MissingDimensionReportsZero(t *testing.T) {
	reviews := []Ratings{
		{Communication: ptr(5), Value: ptr(2)},
		{Communication: ptr(4)},
	}

	m := Aggregate(ServiceDimensions, reviews)
	require.NotNil(t, m)

	assert.Equal(t, 0.0, m.Averages["location"])
	assert.Equal(t, 0.0, m.Averages["punctuality"])
	assert.InDelta(t, 4.5, m.Averages["communication"], 1e-9)
	assert.InDelta(t, 2.0, m.Averages["value"], 1e-9)
	// zero averages are left out of the overall score
	assert.Equal(t, 3.3, m.Overall)
}

func TestAggregate_OverallRoundedToOneDecimal(t *testing.T) {
	reviews := []Ratings{
		{Communication: ptr(5), Packaging: ptr(4), Quality: ptr(4)},
	}
	m := Aggregate(ProductDimensions, reviews)
	require.NotNil(t, m)
	// (5 + 4 + 4) / 3 = 4.333...
	assert.Equal(t, 4.3, m.Overall)
}

func TestAggregate_HistogramRounding(t *testing.T) {
	reviews := []Ratings{
		{Communication: ptr(1), Value: ptr(2)},    // 1.5 -> 2
		{Communication: ptr(2), Value: ptr(2)},    // 2
		{Communication: ptr(5), Value: ptr(4)},    // 4.5 -> 5
		{Communication: ptr(1)},                   // 1
		{Location: ptr(3), Punctuality: ptr(3)},   // 3
		{Communication: nil, Value: nil},          // no valid fields
		{Communication: ptr(9), Location: ptr(0)}, // out of range, ignored
	}

	m := Aggregate(ServiceDimensions, reviews)
	require.NotNil(t, m)

	assert.Equal(t, [5]int{1, 2, 1, 0, 1}, m.Histogram)
	assert.Equal(t, len(reviews), m.Count)
}

func TestAggregate_HistogramSumsToReviewsWithValidField(t *testing.T) {
	reviews := []Ratings{
		{Communication: ptr(3)},
		{},
		{Packaging: ptr(5), Value: ptr(1)},
		{Quality: ptr(6)},
		{Value: ptr(2)},
	}
	m := Aggregate(ProductDimensions, reviews)
	require.NotNil(t, m)

	sum := 0
	for _, c := range m.Histogram {
		sum += c
	}
	assert.Equal(t, 3, sum)
}

func TestAggregate_AveragesWithinRange(t *testing.T) {
	var reviews []Ratings
	for i := 0; i < 50; i++ {
		v1 := i%5 + 1
		v2 := (i*3)%5 + 1
		reviews = append(reviews, Ratings{Communication: ptr(v1), Value: ptr(v2), Quality: ptr(5)})
	}
	m := Aggregate(ProductDimensions, reviews)
	require.NotNil(t, m)

	for dim, avg := range m.Averages {
		if dim == string(Packaging) {
			assert.Equal(t, 0.0, avg)
			continue
		}
		assert.GreaterOrEqual(t, avg, 1.0, dim)
		assert.LessOrEqual(t, avg, 5.0, dim)
	}
	assert.GreaterOrEqual(t, m.Overall, 1.0)
	assert.LessOrEqual(t, m.Overall, 5.0)
}

func TestProductMetrics_UsesReviewFields(t *testing.T) {
	reviews := []models.ProductReview{
		{Communication: ptr(4), Packaging: ptr(2), Quality: ptr(3), Value: ptr(5)},
	}
	m := ProductMetrics(reviews)
	require.NotNil(t, m)
	assert.Equal(t, 2.0, m.Averages["packaging"])
	assert.Equal(t, 3.5, m.Overall)
	assert.Equal(t, [5]int{0, 0, 0, 1, 0}, m.Histogram)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate(Ratings{}), app_errors.ErrEmptyReview)
	assert.ErrorIs(t, Validate(Ratings{Value: nil}), app_errors.ErrEmptyReview)
	assert.ErrorIs(t, Validate(Ratings{Value: ptr(0)}), app_errors.ErrRatingOutOfRange)
	assert.ErrorIs(t, Validate(Ratings{Value: ptr(6)}), app_errors.ErrRatingOutOfRange)
	assert.NoError(t, Validate(Ratings{Value: ptr(1), Quality: nil}))
}
