// Package bridgeerrors defines the typed failure surface of the bridge
// settlement module. Every externally visible failure maps to exactly one of
// these sentinels so callers can branch with errors.Is; validation failures
// leave stored state untouched and are safe to retry with corrected inputs.
package bridgeerrors

import "errors"

// Authorization failures. Always fatal, no partial effect.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidMPC     = errors.New("invalid mpc")
	ErrNotOracleProxy = errors.New("not oracle proxy")
	ErrAlreadyPaused  = errors.New("already paused")
	ErrNotPaused      = errors.New("not paused")
	ErrInvalidAdmin   = errors.New("invalid admin")
)

// Signature and message decoding failures.
var (
	ErrInvalidSignature     = errors.New("invalid eth signature")
	ErrDeserializationError = errors.New("deserialization error")
	ErrDataTooLong          = errors.New("data too long")
	ErrUnsafeConvert        = errors.New("unsafe convert")
)

// Claim/refund validation failures. The stored message stays unconsumed.
var (
	ErrInvalidSwapToAddress     = errors.New("invalid dex swap args: to address")
	ErrInvalidSwapRefundAddress = errors.New("invalid dex swap args: refund address")
	ErrInvalidSwapFromToken     = errors.New("invalid dex swap args: from token address")
	ErrInvalidSwapFromAmount    = errors.New("invalid dex swap args: from amount")
	ErrAccountWrongProgram      = errors.New("account owned by wrong program")
)

// Replay failures. Permanent for the affected key.
var (
	ErrToswapAlreadyUsed = errors.New("toswap already used")
)

// Wrapped-SOL destination guards for claim_to_sol.
var (
	ErrWsolInvalidMint    = errors.New("wsol pda invalid mint address")
	ErrWsolInvalidOwner   = errors.New("wsol pda invalid owner address")
	ErrWsolInvalidAmount  = errors.New("wsol pda invalid account amount")
	ErrWsolDecodeFailed   = errors.New("wsol pda failed to decode token account")
)

// Config lifecycle failures.
var (
	ErrNotInitialized      = errors.New("not initialized")
	ErrAlreadyInitialized  = errors.New("already initialized")
	ErrInvalidPendingOwner = errors.New("invalid pending owner")
)

// Outbound dispatch failures.
var (
	ErrAmountMustEqualConsumed = errors.New("user enter amount must equal user consumed")
	ErrInvalidSwapType         = errors.New("invalid swap type")
	ErrInvalidAdaptorID        = errors.New("invalid adaptor id")
	ErrInvalidToChainID        = errors.New("invalid to chain id")
	ErrInvalidAccountsLength   = errors.New("invalid accounts length")
	ErrInvalidUserAddress      = errors.New("invalid user address")
	ErrCalculationError        = errors.New("calculation error")
)

// Commission failures.
var (
	ErrInvalidCommissionRate    = errors.New("invalid commission rate")
	ErrInvalidCommissionAccount = errors.New("invalid commission token account")
)

// Adaptor-specific failures.
var (
	ErrMesonSwapTypeUnsupported    = errors.New("meson do not support swap type")
	ErrDebridgeSwapTypeUnsupported = errors.New("debridge do not support swap type")
	ErrBridgersInvalidSelector     = errors.New("bridgers: invalid selector id")
	ErrAdaptorDataTooShort         = errors.New("adaptor data length is insufficient")
)
