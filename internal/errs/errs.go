// internal/errs/errs.go
package errs

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку операции.
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindAuthorization Kind = "authorization"
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindExecution     Kind = "execution"
	KindLifecycle     Kind = "lifecycle"
	KindHost          Kind = "host"
)

// Error is a sentinel carrying its taxonomy kind. Compare with errors.Is.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Kind returns the taxonomy bucket of the sentinel.
func (e *Error) Kind() Kind { return e.kind }

func newErr(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Authorization
var (
	ErrUnauthorized     = newErr(KindAuthorization, "unauthorized signer")
	ErrNotOperator      = newErr(KindAuthorization, "signer is not an operator")
	ErrNotCreator       = newErr(KindAuthorization, "signer is not the order creator")
	ErrMissingSignature = newErr(KindAuthorization, "missing required signature")
	ErrOwnerMismatch    = newErr(KindAuthorization, "token account owner mismatch")
)

// Configuration
var (
	ErrDuplicateAdapter      = newErr(KindConfiguration, "adapter already configured")
	ErrAdapterNotConfigured  = newErr(KindConfiguration, "adapter not configured")
	ErrAdapterDisabled       = newErr(KindConfiguration, "adapter disabled")
	ErrDuplicateOperator     = newErr(KindConfiguration, "operator already present")
	ErrOperatorNotFound      = newErr(KindConfiguration, "operator not found")
	ErrOperatorSetFull       = newErr(KindConfiguration, "operator set is full")
	ErrPoolAlreadyRegistered = newErr(KindConfiguration, "pool already registered")
	ErrPoolNotRegistered     = newErr(KindConfiguration, "pool not registered")
	ErrPoolDisabled          = newErr(KindConfiguration, "pool disabled")
	ErrUnknownSwapType       = newErr(KindConfiguration, "no adapter for swap type")
	ErrAggregatorNotSet      = newErr(KindConfiguration, "aggregator program not set")
)

// Validation
var (
	ErrZeroAmount              = newErr(KindValidation, "amount must be greater than zero")
	ErrInvalidSlippage         = newErr(KindValidation, "slippage bps out of range")
	ErrInvalidPlatformFee      = newErr(KindValidation, "platform fee bps out of range")
	ErrInvalidTrigger          = newErr(KindValidation, "trigger threshold bps out of range")
	ErrInvalidExpiry           = newErr(KindValidation, "expiry must be in the future")
	ErrInvalidTriggerKind      = newErr(KindValidation, "unknown trigger kind")
	ErrVaultMismatch           = newErr(KindValidation, "vault address mismatch")
	ErrEscrowMismatch          = newErr(KindValidation, "escrow address mismatch")
	ErrMintMismatch            = newErr(KindValidation, "mint mismatch")
	ErrEmptyRoute              = newErr(KindValidation, "route plan is empty")
	ErrInvalidHopWindow        = newErr(KindValidation, "hop account window out of range")
	ErrAccountSchemaMismatch   = newErr(KindValidation, "hop accounts do not match adapter schema")
	ErrInvalidProgram          = newErr(KindValidation, "hop program does not match registry")
	ErrUnsupportedSplit        = newErr(KindValidation, "partial hop percentages are not supported")
	ErrExtensionsUnsupported   = newErr(KindValidation, "mint program does not support extensions")
	ErrInvalidInstructionData  = newErr(KindValidation, "invalid instruction data")
	ErrInvalidAccountData      = newErr(KindValidation, "invalid account data")
	ErrInsufficientFunds       = newErr(KindValidation, "insufficient token balance")
	ErrInsufficientLamports    = newErr(KindValidation, "insufficient lamports for storage deposit")
	ErrInvalidAccountOwner     = newErr(KindValidation, "account owned by unexpected program")
	ErrArithmeticOverflow      = newErr(KindValidation, "arithmetic overflow")
	ErrInvalidAuthorityVersion = newErr(KindValidation, "unsupported vault authority schema version")
)

// Execution
var (
	ErrSlippageToleranceExceeded = newErr(KindExecution, "slippage tolerance exceeded")
	ErrTriggerConditionNotMet    = newErr(KindExecution, "trigger condition not met")
	ErrVenueOutputTooLow         = newErr(KindExecution, "venue output below minimum")
	ErrEmptyPool                 = newErr(KindExecution, "pool has no liquidity")
)

// Lifecycle
var (
	ErrAlreadyInitialized = newErr(KindLifecycle, "already initialized")
	ErrNotInitialized     = newErr(KindLifecycle, "not initialized")
	ErrInvalidOrderStatus = newErr(KindLifecycle, "invalid order status for transition")
	ErrOrderExpired       = newErr(KindLifecycle, "order expired")
	ErrVaultNotEmpty      = newErr(KindLifecycle, "vault not empty")
	ErrAccountNotEmpty    = newErr(KindLifecycle, "token account not empty")
)

// Host
var (
	ErrAccountNotFound       = newErr(KindHost, "account not found")
	ErrAccountExists         = newErr(KindHost, "account already exists")
	ErrProgramNotFound       = newErr(KindHost, "program not found")
	ErrCallDepthExceeded     = newErr(KindHost, "invocation depth exceeded")
	ErrComputeBudgetExceeded = newErr(KindHost, "compute budget exceeded")
	ErrStoreBusy             = newErr(KindHost, "store busy")
	ErrReadOnly              = newErr(KindHost, "write in read-only transaction")
)

// KindOf returns the taxonomy of the first sentinel found in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Wrap annotates a sentinel with context while keeping errors.Is working.
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
