// Package payments holds the read models for gateway transactions and
// daily account balances shown on the dashboard.
package payments

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Gateway identifies the payment channel a transaction came through
type Gateway string

const (
	GatewayArifPay   Gateway = "ARIFPAY"
	GatewayPayStream Gateway = "PAYSTREAM"
	GatewayUSSDPush  Gateway = "USSD_PUSH"
	GatewayQR        Gateway = "QR"
)

// AllGateways returns every supported gateway
func AllGateways() []Gateway {
	return []Gateway{GatewayArifPay, GatewayPayStream, GatewayUSSDPush, GatewayQR}
}

// ParseGateway parses a case-insensitive gateway name
func ParseGateway(s string) (Gateway, error) {
	g := Gateway(strings.ToUpper(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("payments: unknown gateway %q", s)
	}
	return g, nil
}

// IsValid checks if the gateway is supported
func (g Gateway) IsValid() bool {
	switch g {
	case GatewayArifPay, GatewayPayStream, GatewayUSSDPush, GatewayQR:
		return true
	default:
		return false
	}
}

// String returns the string representation of the gateway
func (g Gateway) String() string {
	return string(g)
}

// Scan implements the sql.Scanner interface
func (g *Gateway) Scan(value any) error {
	if value == nil {
		return nil
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("payments: cannot scan type %T into Gateway", value)
	}
	parsed, err := ParseGateway(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (g Gateway) Value() (driver.Value, error) {
	return string(g), nil
}

// TransactionStatus is the settlement state reported by the gateway
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusSuccess  TransactionStatus = "SUCCESS"
	TransactionStatusFailed   TransactionStatus = "FAILED"
	TransactionStatusReversed TransactionStatus = "REVERSED"
)

// ParseTransactionStatus parses a case-insensitive status name
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	st := TransactionStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("payments: unknown transaction status %q", s)
	}
	return st, nil
}

// IsValid checks if the status is known
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusReversed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status
func (s TransactionStatus) String() string {
	return string(s)
}
