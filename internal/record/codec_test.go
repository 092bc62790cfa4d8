package record

import (
	"encoding/json"
	"testing"

	"github.com/nndrao/stomp-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePositions = `[
  {
    "positionId": "POS-a",
    "cusip": "ABC123XYZ",
    "currentPrice": 101.25,
    "notionalAmount": 500000,
    "rating": {"moody": "Aa1", "sp": "AA+"},
    "analytics": {"keyRateDuration": {"1Y": 0.12}, "greeks": {"delta": 0.3, "gamma": 0.01, "theta": -3, "vega": 12, "rho": 1}},
    "additionalAttributes": {"attribute1": "Value1_0", "attribute3": 12.5}
  },
  {"positionId": "POS-b", "currentPrice": 99}
]`

func TestDecodeArray_Positions(t *testing.T) {
	records, err := DecodeArray(domain.KindPositions, []byte(samplePositions))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0].(*Position)
	assert.Equal(t, "POS-a", first.Identity())
	assert.Equal(t, domain.KindPositions, first.Kind())
	assert.Equal(t, 101.25, first.CurrentPrice)
	require.NotNil(t, first.Analytics.Greeks)
	assert.Equal(t, 0.3, first.Analytics.Greeks.Delta)
	assert.Nil(t, first.Analytics.ScenarioAnalysis)
	assert.Nil(t, records[1].(*Position).Analytics)
}

func TestEncodeArray_PreservesOpaqueSections(t *testing.T) {
	records, err := DecodeArray(domain.KindPositions, []byte(samplePositions))
	require.NoError(t, err)

	data, err := EncodeArray(records[:1])
	require.NoError(t, err)

	var out []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 1)
	assert.JSONEq(t, `{"moody": "Aa1", "sp": "AA+"}`, string(out[0]["rating"]))
	assert.JSONEq(t, `{"attribute1": "Value1_0", "attribute3": 12.5}`, string(out[0]["additionalAttributes"]))
	assert.NotContains(t, out[0], "riskMetrics")
}

func TestEncodeArray_Empty(t *testing.T) {
	data, err := EncodeArray(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestDecodeOne_Errors(t *testing.T) {
	tests := []struct {
		name string
		kind domain.Kind
		data string
	}{
		{"missing position id", domain.KindPositions, `{"cusip": "X"}`},
		{"missing trade id", domain.KindTrades, `{"side": "BUY"}`},
		{"malformed json", domain.KindTrades, `{"tradeId": `},
		{"unknown kind", domain.Kind("bonds"), `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOne(tt.kind, []byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDecodeOne_Trade(t *testing.T) {
	r, err := DecodeOne(domain.KindTrades, []byte(`{
		"tradeId": "TRD-9",
		"side": "SELL",
		"settlement": {"custodian": "JPM", "dvp": true, "failureReason": null},
		"lifecycle": {"createdDate": "2024-01-01T00:00:00.000Z", "cancelledDate": null, "amendmentHistory": []}
	}`))
	require.NoError(t, err)

	trade := r.(*Trade)
	assert.Equal(t, "TRD-9", trade.Identity())
	assert.Equal(t, -1.0, trade.direction())
	assert.Nil(t, trade.Settlement.FailureReason)
	assert.JSONEq(t, `[]`, string(trade.Lifecycle.AmendmentHistory))
}
