package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateZoneMatch(t *testing.T) {
	est := NewEstimator(nil, 2000, 50000)

	got, err := est.Estimate(EstimateInput{Pincode: "400053", WeightKg: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.TotalShippingCost)
	assert.Equal(t, 2, got.DeliveryDays)
	assert.True(t, got.ExpressAvailable)
	assert.Equal(t, int64(50000), got.FreeShippingThreshold)
}

func TestEstimateFallbackAndWeight(t *testing.T) {
	est := NewEstimator(nil, 2000, 50000)

	got, err := est.Estimate(EstimateInput{Pincode: "682001", WeightKg: 2.5})
	require.NoError(t, err)
	assert.Equal(t, int64(7500+3000), got.BaseShippingCost)
	assert.Equal(t, 5, got.DeliveryDays)
	assert.False(t, got.ExpressAvailable)
}

func TestEstimateExpress(t *testing.T) {
	est := NewEstimator(nil, 2000, 50000)

	got, err := est.Estimate(EstimateInput{Pincode: "110001", Express: true})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), got.ExpressCost)
	assert.Equal(t, int64(16000), got.TotalShippingCost)
	assert.Equal(t, 1, got.DeliveryDays)

	noExpress, err := est.Estimate(EstimateInput{Pincode: "560001", Express: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), noExpress.ExpressCost)
	assert.Equal(t, 3, noExpress.DeliveryDays)
}

func TestEstimateRequiresPincode(t *testing.T) {
	_, err := NewEstimator(nil, 2000, 50000).Estimate(EstimateInput{Pincode: " "})
	assert.Error(t, err)
}
