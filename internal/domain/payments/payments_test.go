package payments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGateway(t *testing.T) {
	g, err := ParseGateway("ussd_push")
	require.NoError(t, err)
	assert.Equal(t, GatewayUSSDPush, g)

	_, err = ParseGateway("paypal")
	assert.Error(t, err)

	var scanned Gateway
	require.NoError(t, scanned.Scan("QR"))
	assert.Equal(t, GatewayQR, scanned)
	assert.Len(t, AllGateways(), 4)
}

func TestParseTransactionStatus(t *testing.T) {
	s, err := ParseTransactionStatus(" success ")
	require.NoError(t, err)
	assert.Equal(t, TransactionStatusSuccess, s)

	_, err = ParseTransactionStatus("settled")
	assert.Error(t, err)
}

func TestDailyBalance_NetMovement(t *testing.T) {
	b := DailyBalance{
		TotalCredit: decimal.RequireFromString("1500.25"),
		TotalDebit:  decimal.RequireFromString("500.75"),
	}
	assert.True(t, decimal.RequireFromString("999.50").Equal(b.NetMovement()))
}
