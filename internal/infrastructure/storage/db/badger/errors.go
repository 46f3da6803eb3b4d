package dbbadger

import "errors"

var (
	// ErrOrderInvalidRequest ...
	ErrOrderInvalidRequest = errors.New("requested order is null or has a different id")
	// ErrContractInvalidRequest ...
	ErrContractInvalidRequest = errors.New("requested contract state is null")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must not be null or negative")
)
