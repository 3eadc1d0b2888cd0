package core

import (
	"errors"
	"fmt"
)

// Contract violations. These are programming errors at the caller, not bad
// data; bad data is reported through row annotations.
var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNoActiveRuleSet = errors.New("no active rule set")
	ErrRowOutOfRange   = errors.New("row out of range")
	ErrNoErrorRows     = errors.New("no error rows")
)

// Rule set definition errors, returned by RuleSet.Validate and the codec.
var (
	ErrInvalidRuleSetName = errors.New("invalid rule set name")
	ErrEmptyRuleColumn    = errors.New("rule has no column")
	ErrDuplicateColumn    = errors.New("duplicate rule column")
	ErrInvalidRuleParam   = errors.New("invalid rule parameter")
)

// ContractError records which operation was misused.
type ContractError struct {
	Op     string
	Err    error
	Detail string
}

func (e *ContractError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Detail)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

func contractErr(op string, sentinel error, detail string) error {
	return &ContractError{Op: op, Err: sentinel, Detail: detail}
}
