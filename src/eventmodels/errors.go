package eventmodels

import "fmt"

var (
	ErrSecurityNotFound  = fmt.Errorf("security not found")
	ErrNoPriceAvailable  = fmt.Errorf("no price available")
	ErrNoStrikesInRange  = fmt.Errorf("no strikes in range")
	ErrNoOptionMonths    = fmt.Errorf("no option expiration months")
	ErrNoContractsToSave = fmt.Errorf("no contracts to export")
)

// GatewayAPIError wraps transport and status failures talking to the
// Client Portal Gateway.
type GatewayAPIError struct {
	Endpoint string
	Err      error
}

func NewGatewayAPIError(endpoint string, err error) *GatewayAPIError {
	return &GatewayAPIError{
		Endpoint: endpoint,
		Err:      err,
	}
}

func (e *GatewayAPIError) Error() string {
	return fmt.Sprintf("gateway request failed for %s: %v", e.Endpoint, e.Err)
}

func (e *GatewayAPIError) Unwrap() error {
	return e.Err
}

// DataValidationError marks gateway payloads that parse but fail the
// contract invariants.
type DataValidationError struct {
	Reason string
}

func NewDataValidationError(format string, args ...interface{}) *DataValidationError {
	return &DataValidationError{
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *DataValidationError) Error() string {
	return fmt.Sprintf("data validation failed: %s", e.Reason)
}
