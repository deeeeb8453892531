package model

import "errors"

// Data integrity errors. The ledger is inconsistent and the run must stop.
var (
	ErrUnknownAccount     = errors.New("unknown account")
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrAccountCycle       = errors.New("account parent cycle")
	ErrUnbalanced         = errors.New("unbalanced transaction")
	ErrUnsupportedShape   = errors.New("unsupported composite transaction")
)

// Validation errors. A journal entry cannot be represented in the import format.
var (
	ErrOutOfRange = errors.New("value out of range")
	ErrTaxRate    = errors.New("unknown tax rate")
)
