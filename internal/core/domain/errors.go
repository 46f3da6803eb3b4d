package domain

import "errors"

// ErrorClass groups failures by the kind of rule they violate.
type ErrorClass int

const (
	ErrClassUnknown ErrorClass = iota
	ErrClassConstruction
	ErrClassValidation
	ErrClassAuthorization
	ErrClassNotFound
	ErrClassState
	ErrClassTransfer
	ErrClassReentrancy
)

func (c ErrorClass) String() string {
	switch c {
	case ErrClassConstruction:
		return "construction"
	case ErrClassValidation:
		return "validation"
	case ErrClassAuthorization:
		return "authorization"
	case ErrClassNotFound:
		return "not_found"
	case ErrClassState:
		return "state"
	case ErrClassTransfer:
		return "transfer"
	case ErrClassReentrancy:
		return "reentrancy"
	default:
		return "unknown"
	}
}

// Error is a named, classified failure. Every rejection of an exchange
// operation is one of these, possibly wrapped.
type Error struct {
	Name  string
	Class ErrorClass
	msg   string
}

// NewError returns a new classified error. Packages outside domain use it to
// define their own failure kinds, like token contracts do.
func NewError(name string, class ErrorClass, msg string) *Error {
	return &Error{name, class, msg}
}

func (e *Error) Error() string {
	return e.msg
}

// ClassOf returns the class of the first classified error found in err's
// chain, or ErrClassUnknown.
func ClassOf(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ErrClassUnknown
}

// NameOf returns the name of the first classified error found in err's chain.
func NameOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Name
	}
	return ""
}

var (
	// ErrInvalidOwner is returned when a contract is deployed or handed over
	// to the zero address.
	ErrInvalidOwner = NewError(
		"OwnableInvalidOwner", ErrClassConstruction, "owner must not be the zero address",
	)
	// ErrInvalidTokenManager ...
	ErrInvalidTokenManager = NewError(
		"InvalidTokenManager", ErrClassConstruction, "token manager address must not be zero",
	)
	// ErrInvalidOrderBookAddress ...
	ErrInvalidOrderBookAddress = NewError(
		"InvalidOrderBookAddress", ErrClassConstruction, "order book address must not be zero",
	)

	ErrInvalidAmounts = NewError(
		"InvalidAmounts", ErrClassValidation, "sell and buy amounts must be greater than zero",
	)
	ErrSameAssetTrade = NewError(
		"SameAssetTrade", ErrClassValidation, "sell and buy assets must differ",
	)
	ErrTokenNotSupported = NewError(
		"TokenNotSupported", ErrClassValidation, "token is not in the allow-list",
	)
	// ErrIncorrectETHAmount is returned when the attached native value does
	// not match exactly the amount the operation requires.
	ErrIncorrectETHAmount = NewError(
		"IncorrectETHAmount", ErrClassValidation, "attached native value does not match the required amount",
	)
	// ErrETHSentWithERC20 is returned when native value is attached to an
	// operation whose leg is a token.
	ErrETHSentWithERC20 = NewError(
		"ETHSentWithERC20", ErrClassValidation, "native value must not be attached to a token leg",
	)
	ErrInvalidTradeContract = NewError(
		"InvalidTradeContract", ErrClassValidation, "trade contract address must not be zero",
	)
	ErrRestrictionAlreadySet = NewError(
		"RestrictionAlreadySet", ErrClassValidation, "token restriction already has the requested value",
	)
	ErrInvalidTokenAddress = NewError(
		"InvalidTokenAddress", ErrClassValidation, "token address must not be zero",
	)
	ErrTokenAlreadySupported = NewError(
		"TokenAlreadySupported", ErrClassValidation, "token is already supported",
	)
	ErrTokenAlreadyNotSupported = NewError(
		"TokenAlreadyNotSupported", ErrClassValidation, "token is already not supported",
	)
	// ErrNonPayable is returned when native value is attached to an operation
	// that does not accept it.
	ErrNonPayable = NewError(
		"NonPayable", ErrClassValidation, "operation does not accept native value",
	)
	ErrInvalidCaller = NewError(
		"InvalidCaller", ErrClassValidation, "caller must not be the zero address",
	)
	ErrInvalidValue = NewError(
		"InvalidValue", ErrClassValidation, "attached value must not be negative",
	)

	ErrUnauthorizedAccount = NewError(
		"OwnableUnauthorizedAccount", ErrClassAuthorization, "caller is not the owner",
	)
	ErrNotOrderCreator = NewError(
		"NotOrderCreator", ErrClassAuthorization, "caller is not the order creator",
	)
	ErrOnlyTradeContract = NewError(
		"OnlyTradeContract", ErrClassAuthorization, "caller is not the trade contract",
	)
	ErrCannotExecuteOwnOrder = NewError(
		"CannotExecuteOwnOrder", ErrClassAuthorization, "order creator cannot execute its own order",
	)

	ErrOrderDoesNotExist = NewError(
		"OrderDoesNotExist", ErrClassNotFound, "order does not exist",
	)
	ErrTokenNotFound = NewError(
		"TokenNotFound", ErrClassNotFound, "token contract not found",
	)

	ErrOrderNotActive = NewError(
		"OrderNotActive", ErrClassState, "order is not active",
	)
	ErrOrderNotPending = NewError(
		"OrderNotPending", ErrClassState, "order is not pending",
	)

	ErrInsufficientAllowance = NewError(
		"InsufficientAllowance", ErrClassTransfer, "allowance is lower than the required amount",
	)
	ErrInsufficientBalance = NewError(
		"InsufficientBalance", ErrClassTransfer, "balance is lower than the required amount",
	)
	ErrTokenTransferFailed = NewError(
		"TokenTransferFailed", ErrClassTransfer, "token transfer failed",
	)
	ErrETHReturnFailed = NewError(
		"ETHReturnFailed", ErrClassTransfer, "native currency release from custody failed",
	)
	ErrTokenBuyTransferFailed = NewError(
		"TokenBuyTransferFailed", ErrClassTransfer, "buy token transfer failed",
	)
	ErrTokenSellTransferFailed = NewError(
		"TokenSellTransferFailed", ErrClassTransfer, "sell token transfer failed",
	)
	ErrETHTransferToCreatorFailed = NewError(
		"ETHTransferToCreatorFailed", ErrClassTransfer, "native transfer to order creator failed",
	)
	ErrETHTransferToExecutorFailed = NewError(
		"ETHTransferToExecutorFailed", ErrClassTransfer, "native transfer to executor failed",
	)

	// ErrReentrantCall is returned when settlement is entered again before
	// the running one has finished.
	ErrReentrantCall = NewError(
		"ReentrancyGuardReentrantCall", ErrClassReentrancy, "reentrant call",
	)
)

// Repository level failures. These are not part of the contract surface and
// map to internal errors.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderBookNotFound    = errors.New("order book not found")
	ErrTokenManagerNotFound = errors.New("token manager not found")
	ErrOrderAlreadyExists   = errors.New("order already exists")
	ErrContractExists       = errors.New("contract state already exists")
)
