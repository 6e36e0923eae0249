package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAddress() Address {
	blank := "   "
	return Address{
		FullName:     " Asha Rao ",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road ",
		AddressLine2: &blank,
		City:         "Bengaluru",
		State:        "KA",
		PostalCode:   " 560001",
	}
}

func TestAddressNormalize(t *testing.T) {
	got := sampleAddress().Normalize()
	assert.Equal(t, "Asha Rao", got.FullName)
	assert.Equal(t, "560001", got.PostalCode)
	assert.Equal(t, "India", got.Country)
	assert.Nil(t, got.AddressLine2)
}

func TestAddressValueAndScan(t *testing.T) {
	raw, err := sampleAddress().Value()
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, decoded.Scan([]byte(raw.(string))))
	assert.Equal(t, sampleAddress().Normalize(), decoded)

	require.NoError(t, decoded.Scan(nil))
	assert.Equal(t, Address{}, decoded)

	assert.Error(t, decoded.Scan(42))
}

func TestAddressValueRequiresCoreFields(t *testing.T) {
	addr := sampleAddress()
	addr.City = " "
	_, err := addr.Value()
	assert.Error(t, err)
}
