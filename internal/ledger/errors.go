package ledger

import "fmt"

// AuthError indicates a credential exchange or refresh failure. It is fatal
// for the current sync and usually means the company must re-authorize.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("ledger auth failed during %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// LedgerError indicates a transport failure or non-2xx response from the
// ledger's query API. Fatal for the current sync call; callers may retry
// the whole sync later.
type LedgerError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *LedgerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ledger %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
