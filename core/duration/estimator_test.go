package duration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

func job(start, end string, services ...string) model.ExistingJob {
	s := model.MustTimeOfDay(start)
	e := model.MustTimeOfDay(end)
	return model.ExistingJob{ScheduledStart: &s, ScheduledEnd: &e, ServiceNames: services}
}

func TestEstimateTwoSamplesInsufficient(t *testing.T) {
	e := NewEstimator(DefaultPolicy())
	hist := []model.ExistingJob{
		job("08:00", "10:00", "Carpet Cleaning"),
		job("11:00", "13:00", "carpet cleaning"),
	}
	est, err := e.Estimate([]string{"Carpet Cleaning"}, hist)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, 2, est.Samples)
	assert.Zero(t, est.Minutes)
}

func TestEstimateThreeSamples(t *testing.T) {
	e := NewEstimator(DefaultPolicy())
	hist := []model.ExistingJob{
		job("08:00", "09:00", "Carpet Cleaning"),
		job("08:00", "10:00", "Carpet Cleaning"),
		job("08:00", "14:00", "Carpet Cleaning"),
	}
	est, err := e.Estimate([]string{"carpet cleaning"}, hist)
	require.NoError(t, err)
	// median 120, mean 180
	assert.Equal(t, 120.0, est.Median)
	assert.Equal(t, 180.0, est.Mean)
	assert.Equal(t, 150, est.Minutes)
	assert.Equal(t, 3, est.Samples)
}

func TestEstimateExcludesOutliers(t *testing.T) {
	e := NewEstimator(DefaultPolicy())

	// two identical samples plus an outlier: the outlier must not count
	twoPlusOutlier := []model.ExistingJob{
		job("08:00", "10:00", "Tile"),
		job("12:00", "14:00", "Tile"),
		job("00:00", "12:00", "Tile"),
	}
	_, err := e.Estimate([]string{"tile"}, twoPlusOutlier)
	assert.ErrorIs(t, err, ErrInsufficientData)

	threePlusOutlier := append(twoPlusOutlier, job("14:00", "16:00", "Tile"))
	est, err := e.Estimate([]string{"tile"}, threePlusOutlier)
	require.NoError(t, err)
	assert.Equal(t, 120, est.Minutes)
	assert.Equal(t, 3, est.Samples)
}

func TestEstimateDiscardsNonPositiveAndIncomplete(t *testing.T) {
	e := NewEstimator(DefaultPolicy())
	hist := []model.ExistingJob{
		job("10:00", "10:00", "Tile"),
		job("10:00", "09:00", "Tile"),
		{ServiceNames: []string{"Tile"}},
		job("08:00", "09:30", "Tile"),
	}
	est, err := e.Estimate([]string{"Tile"}, hist)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, 1, est.Samples)
}

func TestEstimateLooseMatching(t *testing.T) {
	e := NewEstimator(DefaultPolicy())
	hist := []model.ExistingJob{
		job("08:00", "09:00", "Carpet Cleaning - 3 rooms"), // history contains request
		job("08:00", "09:00", "carpet"),                    // request contains history
		job("08:00", "09:00", "Upholstery", " CARPET CLEANING "),
		job("08:00", "12:00", "Upholstery"),
		job("08:00", "12:00", ""),
	}
	est, err := e.Estimate([]string{"Carpet Cleaning"}, hist)
	require.NoError(t, err)
	assert.Equal(t, 3, est.Samples)
	assert.Equal(t, 60, est.Minutes)
}

func TestEstimateInflatesForExtraServices(t *testing.T) {
	e := NewEstimator(DefaultPolicy())
	hist := []model.ExistingJob{
		job("08:00", "09:40", "Carpet"),
		job("08:00", "09:40", "Carpet"),
		job("08:00", "09:40", "Tile"),
	}
	est, err := e.Estimate([]string{"Carpet", "Tile"}, hist)
	require.NoError(t, err)
	// 100 * (1 + 0.5) = 150
	assert.Equal(t, 150, est.Minutes)

	// duplicates in any case do not count as extra services
	est, err = e.Estimate([]string{"Carpet", "carpet ", "CARPET"}, hist)
	require.NoError(t, err)
	assert.Equal(t, 100, est.Minutes)

	est, err = e.Estimate([]string{"Carpet", "Tile", "Grout"}, hist)
	require.NoError(t, err)
	assert.Equal(t, 200, est.Minutes)
}

func TestEstimateRounds(t *testing.T) {
	e := NewEstimator(DefaultPolicy())
	hist := []model.ExistingJob{
		job("08:00", "09:01", "Tile"),
		job("08:00", "09:02", "Tile"),
		job("08:00", "09:02", "Tile"),
	}
	est, err := e.Estimate([]string{"tile"}, hist)
	require.NoError(t, err)
	// median 62, mean 61.67 -> 61.83
	assert.Equal(t, 62, est.Minutes)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	xs := []float64{3, 1, 2}
	Median(xs)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}

func TestCustomPolicy(t *testing.T) {
	e := NewEstimator(Policy{OutlierMinutes: 90, MinSamples: 1, ExtraServiceFactor: 1})
	hist := []model.ExistingJob{job("08:00", "09:00", "Tile"), job("08:00", "10:00", "Tile")}
	est, err := e.Estimate([]string{"Tile", "Grout"}, hist)
	require.NoError(t, err)
	assert.Equal(t, 1, est.Samples)
	assert.Equal(t, 120, est.Minutes)
}
