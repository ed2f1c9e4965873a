// Package bridgein implements the inbound side of the settlement module:
// oracle-signed message verification with replay-protected storage, and the
// claim and refund paths that release bridged funds exactly once.
package bridgein

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/runtime"
	"github.com/sigweihq/xbridge/pkg/sigverify"
	"github.com/sigweihq/xbridge/pkg/store"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// Deps are the external execution surfaces the engine moves funds through.
type Deps struct {
	Balances  runtime.BalanceReader
	Inspector runtime.AccountInspector
	Tokens    runtime.TokenTransferrer
	Dex       runtime.DexSwapper
}

// Engine owns the inbound settlement state machine. All fund-moving
// operations run inside one store transaction so a failure at any step leaves
// the message unconsumed.
type Engine struct {
	store        *store.Store
	deps         Deps
	log          zerolog.Logger
	testRelayers map[solana.PublicKey]struct{}
}

// Option configures optional engine behavior.
type Option func(*Engine)

// WithTestRelayers authorizes extra relayer keys alongside the configured
// MPC. Staging only.
func WithTestRelayers(keys []solana.PublicKey) Option {
	return func(e *Engine) {
		for _, key := range keys {
			e.testRelayers[key] = struct{}{}
		}
	}
}

// New builds an inbound engine over the given store and runtime surfaces.
func New(st *store.Store, deps Deps, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        st,
		deps:         deps,
		log:          log,
		testRelayers: make(map[solana.PublicKey]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize creates the singleton config. Only the deployer key may perform
// it, and only once.
func (e *Engine) Initialize(controller, mpc solana.PublicKey, oracle [20]byte) error {
	if !controller.Equals(constants.DeployerKey) {
		return bridgeerrors.ErrUnauthorized
	}
	return e.store.Transaction(func(tx *store.Store) error {
		exists, err := tx.HasConfig()
		if err != nil {
			return err
		}
		if exists {
			return bridgeerrors.ErrAlreadyInitialized
		}
		cfg := &types.ContractConfig{
			Owner:  controller,
			Oracle: oracle,
			MPC:    mpc,
		}
		if err := tx.SaveConfig(cfg); err != nil {
			return err
		}
		e.log.Info().
			Str("owner", cfg.Owner.String()).
			Str("mpc", cfg.MPC.String()).
			Hex("oracle", cfg.Oracle[:]).
			Msg("contract initialized")
		return nil
	})
}

// TransferOwnership stages a two-step ownership handover. The new owner must
// be a fresh, nonzero key.
func (e *Engine) TransferOwnership(caller, newOwner solana.PublicKey) error {
	return e.store.Transaction(func(tx *store.Store) error {
		cfg, err := e.requireOwner(tx, caller)
		if err != nil {
			return err
		}
		if newOwner.IsZero() || newOwner.Equals(cfg.Owner) || newOwner.Equals(cfg.PendingOwner) {
			return bridgeerrors.ErrInvalidPendingOwner
		}
		cfg.PendingOwner = newOwner
		if err := tx.SaveConfig(cfg); err != nil {
			return err
		}
		e.log.Info().
			Str("previous_owner", cfg.Owner.String()).
			Str("new_owner", newOwner.String()).
			Msg("ownership transfer started")
		return nil
	})
}

// AcceptOwnership completes the handover. Only the staged pending owner may
// call it.
func (e *Engine) AcceptOwnership(caller solana.PublicKey) error {
	return e.store.Transaction(func(tx *store.Store) error {
		cfg, err := tx.GetConfig()
		if err != nil {
			return err
		}
		if cfg.PendingOwner.IsZero() || !caller.Equals(cfg.PendingOwner) {
			return bridgeerrors.ErrUnauthorized
		}
		previous := cfg.Owner
		cfg.Owner = cfg.PendingOwner
		cfg.PendingOwner = solana.PublicKey{}
		if err := tx.SaveConfig(cfg); err != nil {
			return err
		}
		e.log.Info().
			Str("previous_owner", previous.String()).
			Str("new_owner", cfg.Owner.String()).
			Msg("ownership transferred")
		return nil
	})
}

// SetMPC replaces the authorized relayer key. Owner only.
func (e *Engine) SetMPC(caller, newMPC solana.PublicKey) error {
	return e.store.Transaction(func(tx *store.Store) error {
		cfg, err := e.requireOwner(tx, caller)
		if err != nil {
			return err
		}
		cfg.MPC = newMPC
		if err := tx.SaveConfig(cfg); err != nil {
			return err
		}
		e.log.Info().Str("mpc", newMPC.String()).Msg("mpc updated")
		return nil
	})
}

// SetOracle replaces the oracle signer address. Owner only.
func (e *Engine) SetOracle(caller solana.PublicKey, newOracle [20]byte) error {
	return e.store.Transaction(func(tx *store.Store) error {
		cfg, err := e.requireOwner(tx, caller)
		if err != nil {
			return err
		}
		cfg.Oracle = newOracle
		if err := tx.SaveConfig(cfg); err != nil {
			return err
		}
		e.log.Info().Hex("oracle", newOracle[:]).Msg("oracle updated")
		return nil
	})
}

// Pause halts verify, claim and refund processing.
func (e *Engine) Pause(caller solana.PublicKey) error {
	return e.store.Transaction(func(tx *store.Store) error {
		cfg, err := e.requireOwner(tx, caller)
		if err != nil {
			return err
		}
		if cfg.Paused {
			return bridgeerrors.ErrAlreadyPaused
		}
		cfg.Paused = true
		if err := tx.SaveConfig(cfg); err != nil {
			return err
		}
		e.log.Warn().Str("owner", caller.String()).Msg("contract paused")
		return nil
	})
}

// Unpause resumes processing.
func (e *Engine) Unpause(caller solana.PublicKey) error {
	return e.store.Transaction(func(tx *store.Store) error {
		cfg, err := e.requireOwner(tx, caller)
		if err != nil {
			return err
		}
		if !cfg.Paused {
			return bridgeerrors.ErrNotPaused
		}
		cfg.Paused = false
		if err := tx.SaveConfig(cfg); err != nil {
			return err
		}
		e.log.Info().Str("owner", caller.String()).Msg("contract unpaused")
		return nil
	})
}

// Verify checks the oracle signature over message and records the message
// under its derived address. A fresh slot is initialized; an existing,
// unconsumed slot may be rewritten with the newly signed payload. Consumed
// slots are immutable.
func (e *Engine) Verify(caller solana.PublicKey, message, signature []byte, orderID *big.Int) (solana.PublicKey, error) {
	var address solana.PublicKey
	err := e.store.Transaction(func(tx *store.Store) error {
		cfg, err := e.requireRelayer(tx, caller)
		if err != nil {
			return err
		}
		if len(message) > constants.BridgeMessageSize {
			return bridgeerrors.ErrDataTooLong
		}
		msg, err := types.DecodeBridgeMessage(message)
		if err != nil {
			return err
		}
		if err := sigverify.VerifyOracle(message, signature, cfg.Oracle); err != nil {
			return err
		}

		address, err = store.DeriveMessageAddress(msg.SrcChainID, msg.SrcTxHash)
		if err != nil {
			return err
		}
		state, err := tx.GetMessage(address)
		if err != nil {
			return err
		}

		if state.IsZero() {
			state.Authority = caller
			state.AuthorityProgram = constants.Program
			copy(state.Data[:], message)
		} else {
			if state.IsUsed {
				return bridgeerrors.ErrToswapAlreadyUsed
			}
			state.Data = [constants.BridgeMessageSize]byte{}
			copy(state.Data[:], message)
		}
		if err := tx.PutMessage(address, state); err != nil {
			return err
		}
		e.log.Info().
			Str("message_address", address.String()).
			RawJSON("oracle_data", []byte(msg.OracleLog(orderID).JSON())).
			Msg("message verified")
		return nil
	})
	return address, err
}

// ClaimParams carries the relayer-chosen execution inputs for one claim.
type ClaimParams struct {
	SrcChainID [32]byte
	SrcTxHash  [32]byte

	// Amount is the dex input drawn from the bridge source account; Fee is
	// the relayer gas reimbursement. Their sum is bounded by the bridged
	// amount plus margin.
	Amount  uint64
	Fee     uint64
	OrderID *big.Int

	SourceMint      solana.PublicKey
	DestinationMint solana.PublicKey

	SourceTokenAccount      solana.PublicKey
	DestinationTokenAccount solana.PublicKey
	FeeTokenAccount         solana.PublicKey

	// SwapData and SwapAccounts are forwarded opaquely to the dex router.
	SwapData     []byte
	SwapAccounts []*solana.AccountMeta
}

// Claim releases a verified message by swapping the bridged tokens to the
// recipient's associated token account and marking the message consumed.
func (e *Engine) Claim(caller solana.PublicKey, params ClaimParams) error {
	return e.store.Transaction(func(tx *store.Store) error {
		msg, state, address, err := e.loadClaimable(tx, caller, params.SrcChainID, params.SrcTxHash)
		if err != nil {
			return err
		}

		ok, err := utils.IsAssociatedTokenAccount(params.DestinationTokenAccount, msg.ToAddress(), params.DestinationMint)
		if err != nil {
			return err
		}
		if !ok {
			return bridgeerrors.ErrInvalidSwapToAddress
		}

		if err := e.validateDraw(msg, params.SourceMint, params.Amount, params.Fee); err != nil {
			return err
		}
		if err := e.executeRelease(tx, address, state, params); err != nil {
			return err
		}
		e.log.Info().
			Str("message_address", address.String()).
			RawJSON("oracle_data", []byte(msg.OracleLog(params.OrderID).JSON())).
			Uint64("amount", params.Amount).
			Uint64("fee", params.Fee).
			Msg("claim settled")
		return nil
	})
}

// ClaimToSOL releases a verified message whose destination is native SOL.
// The swap lands in a throwaway wrapped-SOL account that must be MPC-owned,
// WSOL-minted and empty, so the recipient cannot be shortchanged by a
// preloaded or foreign account.
func (e *Engine) ClaimToSOL(caller solana.PublicKey, params ClaimParams) error {
	return e.store.Transaction(func(tx *store.Store) error {
		msg, state, address, err := e.loadClaimable(tx, caller, params.SrcChainID, params.SrcTxHash)
		if err != nil {
			return err
		}

		cfg, err := tx.GetConfig()
		if err != nil {
			return err
		}
		info, err := e.deps.Inspector.TokenAccount(params.DestinationTokenAccount)
		if err != nil {
			return bridgeerrors.ErrWsolDecodeFailed
		}
		if !info.Mint.Equals(constants.WrappedSOL) {
			return bridgeerrors.ErrWsolInvalidMint
		}
		if !info.Owner.Equals(cfg.MPC) && !e.isTestRelayer(info.Owner) {
			return bridgeerrors.ErrWsolInvalidOwner
		}
		if info.Amount != 0 {
			return bridgeerrors.ErrWsolInvalidAmount
		}

		if err := e.validateDraw(msg, params.SourceMint, params.Amount, params.Fee); err != nil {
			return err
		}
		if err := e.executeRelease(tx, address, state, params); err != nil {
			return err
		}
		e.log.Info().
			Str("message_address", address.String()).
			RawJSON("oracle_data", []byte(msg.OracleLog(params.OrderID).JSON())).
			Uint64("amount", params.Amount).
			Uint64("fee", params.Fee).
			Msg("claim to sol settled")
		return nil
	})
}

// RefundParams carries the inputs for returning bridged tokens without a
// swap.
type RefundParams struct {
	SrcChainID [32]byte
	SrcTxHash  [32]byte

	RefundAmount uint64
	Fee          uint64
	OrderID      *big.Int

	SourceMint         solana.PublicKey
	SourceTokenAccount solana.PublicKey
	RefundTokenAccount solana.PublicKey
	FeeTokenAccount    solana.PublicKey
}

// Refund returns the bridged tokens to the recipient's own associated token
// account for the source mint and marks the message consumed.
func (e *Engine) Refund(caller solana.PublicKey, params RefundParams) error {
	return e.store.Transaction(func(tx *store.Store) error {
		msg, state, address, err := e.loadClaimable(tx, caller, params.SrcChainID, params.SrcTxHash)
		if err != nil {
			return err
		}

		// Refunds go only to the classic ATA of the original recipient.
		expected, err := utils.AssociatedTokenAccount(msg.ToAddress(), params.SourceMint)
		if err != nil {
			return err
		}
		if !params.RefundTokenAccount.Equals(expected) {
			return bridgeerrors.ErrInvalidSwapRefundAddress
		}

		if err := e.validateDraw(msg, params.SourceMint, params.RefundAmount, params.Fee); err != nil {
			return err
		}

		if params.RefundAmount > 0 {
			if err := e.deps.Tokens.TransferToken(params.SourceTokenAccount, params.RefundTokenAccount, params.RefundAmount); err != nil {
				return err
			}
		}
		if params.Fee > 0 {
			if err := e.deps.Tokens.TransferToken(params.SourceTokenAccount, params.FeeTokenAccount, params.Fee); err != nil {
				return err
			}
		}

		state.IsUsed = true
		if err := tx.PutMessage(address, state); err != nil {
			return err
		}
		e.log.Info().
			Str("message_address", address.String()).
			RawJSON("oracle_data", []byte(msg.OracleLog(params.OrderID).JSON())).
			Uint64("refund_amount", params.RefundAmount).
			Uint64("fee", params.Fee).
			Msg("refund settled")
		return nil
	})
}

// loadClaimable authorizes the caller and loads an unconsumed verified
// message.
func (e *Engine) loadClaimable(tx *store.Store, caller solana.PublicKey, srcChainID, srcTxHash [32]byte) (*types.BridgeMessage, *types.ToSwapMessageState, solana.PublicKey, error) {
	if _, err := e.requireRelayer(tx, caller); err != nil {
		return nil, nil, solana.PublicKey{}, err
	}
	address, err := store.DeriveMessageAddress(srcChainID, srcTxHash)
	if err != nil {
		return nil, nil, solana.PublicKey{}, err
	}
	state, err := tx.GetMessage(address)
	if err != nil {
		return nil, nil, solana.PublicKey{}, err
	}
	if state.IsZero() {
		return nil, nil, solana.PublicKey{}, bridgeerrors.ErrNotInitialized
	}
	if state.IsUsed {
		return nil, nil, solana.PublicKey{}, bridgeerrors.ErrToswapAlreadyUsed
	}
	msg, err := state.Message()
	if err != nil {
		return nil, nil, solana.PublicKey{}, err
	}
	return msg, state, address, nil
}

// validateDraw checks the source mint binding and the amount ceiling.
func (e *Engine) validateDraw(msg *types.BridgeMessage, sourceMint solana.PublicKey, amount, fee uint64) error {
	if !msg.FromTokenAddress().Equals(sourceMint) {
		return bridgeerrors.ErrInvalidSwapFromToken
	}
	ceiling, err := utils.ClaimCeiling(msg.Amount())
	if err != nil {
		return err
	}
	total, err := utils.CheckedAddU64(amount, fee)
	if err != nil {
		return err
	}
	if total > ceiling {
		return bridgeerrors.ErrInvalidSwapFromAmount
	}
	return nil
}

// executeRelease runs the routed swap, pays the relayer fee and consumes the
// message. IsUsed flips only after every external call succeeded.
func (e *Engine) executeRelease(tx *store.Store, address solana.PublicKey, state *types.ToSwapMessageState, params ClaimParams) error {
	if err := e.deps.Dex.Swap(params.SwapData, params.SwapAccounts); err != nil {
		return err
	}
	if params.Fee > 0 {
		if err := e.deps.Tokens.TransferToken(params.SourceTokenAccount, params.FeeTokenAccount, params.Fee); err != nil {
			return err
		}
	}
	state.IsUsed = true
	return tx.PutMessage(address, state)
}

// requireOwner loads the config and checks the caller is the owner.
func (e *Engine) requireOwner(tx *store.Store, caller solana.PublicKey) (*types.ContractConfig, error) {
	cfg, err := tx.GetConfig()
	if err != nil {
		return nil, err
	}
	if !caller.Equals(cfg.Owner) {
		return nil, bridgeerrors.ErrInvalidAdmin
	}
	return cfg, nil
}

// requireRelayer loads the config and checks the caller may move bridged
// funds: the configured MPC, or a test relayer when enabled. Paused halts
// everything.
func (e *Engine) requireRelayer(tx *store.Store, caller solana.PublicKey) (*types.ContractConfig, error) {
	cfg, err := tx.GetConfig()
	if err != nil {
		return nil, err
	}
	if !caller.Equals(cfg.MPC) && !e.isTestRelayer(caller) {
		return nil, bridgeerrors.ErrUnauthorized
	}
	if cfg.Paused {
		return nil, bridgeerrors.ErrAlreadyPaused
	}
	return cfg, nil
}

func (e *Engine) isTestRelayer(key solana.PublicKey) bool {
	_, ok := e.testRelayers[key]
	return ok
}
