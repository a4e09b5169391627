package liquidation

import "fmt"

// MalformedEventError is returned when a raw feed message cannot be turned
// into a LiquidationEvent. Field names the offending payload field.
type MalformedEventError struct {
	Field string
	Err   error
}

func (e *MalformedEventError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed liquidation event: %v", e.Err)
	}
	return fmt.Sprintf("malformed liquidation event: field %q: %v", e.Field, e.Err)
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}

func malformed(field string, err error) error {
	return &MalformedEventError{Field: field, Err: err}
}
