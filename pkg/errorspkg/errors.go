// Package errorspkg provides errors shared by every layer of the ledger.
package errorspkg

import "errors"

// ErrInternal is reported to clients in place of any unexpected failure.
var ErrInternal = errors.New("internal")
