package parse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  float64
		expectErr bool
	}{
		{name: "Plain decimal", raw: "7.2", expected: 7.2},
		{name: "Surrounding spaces", raw: "  28.5 ", expected: 28.5},
		{name: "Integer text", raw: "180", expected: 180},
		{name: "Negative", raw: "-1.5", expected: -1.5},
		{name: "Empty", raw: "", expectErr: true},
		{name: "Blank", raw: "   ", expectErr: true},
		{name: "Not a number", raw: "seven", expectErr: true},
		{name: "NaN literal", raw: "NaN", expectErr: true},
		{name: "Infinity literal", raw: "+Inf", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Float(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.InDelta(t, tc.expected, v, 1e-9)
		})
	}
}

func TestInt(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  int
		expectErr bool
	}{
		{name: "Plain integer", raw: "320", expected: 320},
		{name: "Decimal truncates", raw: "180.7", expected: 180},
		{name: "Negative", raw: "-4", expected: -4},
		{name: "Empty", raw: "", expectErr: true},
		{name: "Garbage", raw: "12ppm", expectErr: true},
		{name: "Too large", raw: "1e12", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Int(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestOptionalInt(t *testing.T) {
	v, err := OptionalInt("")
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = OptionalInt("25")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 25, *v)

	_, err = OptionalInt("soon")
	assert.Error(t, err)
}

func TestField_UnmarshalJSON(t *testing.T) {
	var payload struct {
		PH   Field `json:"ph"`
		TDS  Field `json:"tds"`
		Flow Field `json:"flow"`
	}
	err := json.Unmarshal([]byte(`{"ph":"7.2","tds":180,"flow":null}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, Field("7.2"), payload.PH)
	assert.Equal(t, Field("180"), payload.TDS)
	assert.Equal(t, Field(""), payload.Flow)

	err = json.Unmarshal([]byte(`{"ph":true}`), &payload)
	assert.Error(t, err)
}
