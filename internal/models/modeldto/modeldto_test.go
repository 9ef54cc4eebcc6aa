package modeldto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	b, err := json.Marshal(NewWithdrawal{Amount: NewMoney(decimal.RequireFromString("75")), Method: "upi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":75.00,"method":"upi","details":""}`, string(b))

	var w NewWithdrawal
	require.NoError(t, json.Unmarshal([]byte(`{"amount":50.5}`), &w))
	assert.True(t, w.Amount.Equal(decimal.RequireFromString("50.50")))
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"0.10"}`), &w))
	assert.True(t, w.Amount.Equal(decimal.RequireFromString("0.1")))
	assert.Error(t, json.Unmarshal([]byte(`{"amount":"lots"}`), &w))
}
