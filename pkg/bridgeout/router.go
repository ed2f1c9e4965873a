package bridgeout

import (
	"encoding/hex"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/runtime"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// Deps are the execution surfaces the router drives.
type Deps struct {
	Balances  runtime.BalanceReader
	Inspector runtime.AccountInspector
	Invoker   runtime.Invoker
	Tokens    runtime.TokenTransferrer
	Native    runtime.NativeTransferrer
}

// EventSink receives every emitted settlement record. Nil sinks are skipped;
// the serialized audit line is written regardless.
type EventSink func(types.LogBridgeToVersion1)

// Router dispatches outbound transfers through the registered adaptors and
// proves, by balance delta, that the bridge consumed exactly the declared
// amount.
type Router struct {
	registry *Registry
	deps     Deps
	log      zerolog.Logger
	sink     EventSink
}

// NewRouter builds a router over the given registry and runtime surfaces.
func NewRouter(registry *Registry, deps Deps, log zerolog.Logger, sink EventSink) *Router {
	return &Router{
		registry: registry,
		deps:     deps,
		log:      log,
		sink:     sink,
	}
}

// Wormhole's chain numbering, translated to canonical EVM chain ids for the
// log. Unknown values pass through.
var wormholeChainIDs = map[uint64]uint64{
	2:  1,
	4:  56,
	5:  137,
	6:  43114,
	10: 250,
	13: 8217,
	14: 42220,
	16: 1284,
	23: 42161,
	24: 10,
}

// CCTP domain numbering. Unknown values pass through.
var cctpChainIDs = map[uint64]uint64{
	0: 1,
	1: 43114,
	2: 10,
	3: 42161,
	6: 8453,
	7: 137,
	8: 784,
}

// Allbridge chain numbering. Unknown values pass through.
var allbridgeChainIDs = map[uint64]uint64{
	2:  56,
	5:  137,
	6:  42161,
	8:  43114,
	9:  8453,
	11: 42220,
}

// Mayan Swift chain numbering. Unlike the other tables, an unknown value is
// rejected outright.
var mayanChainIDs = map[uint64]uint64{
	2:  1,
	4:  56,
	5:  137,
	6:  43114,
	23: 42161,
	24: 10,
	30: 8453,
}

// BridgeToLog dispatches one outbound transfer and emits the settlement
// record. The declared amount is verified against the payer's observed
// balance delta; a bridge that consumed a different amount aborts the whole
// dispatch.
func (r *Router) BridgeToLog(req *Request) (*types.LogBridgeToVersion1, error) {
	args := req.Args
	if !args.SwapType.Valid() {
		return nil, bridgeerrors.ErrInvalidSwapType
	}

	// SOL consumption shows up in the payer's lamports, not a token account:
	// a direct WSOL bridge wraps native SOL on the way out.
	useLamports := args.SwapType == types.SwapTypeBridge && req.Mint.Equals(constants.WrappedSOL)

	before, err := r.readBalance(req, useLamports)
	if err != nil {
		return nil, err
	}

	adaptor, err := r.registry.Get(args.AdaptorID)
	if err != nil {
		return nil, err
	}
	dispatch, err := adaptor.Build(req)
	if err != nil {
		return nil, err
	}
	for _, inst := range dispatch.Instructions {
		if err := r.deps.Invoker.Invoke(inst); err != nil {
			return nil, err
		}
	}
	if dispatch.Fee != nil {
		r.log.Info().RawJSON("relayer_fee", []byte(dispatch.Fee.JSON())).Msg("adaptor relayer fee deducted")
	}

	loggedAmount := args.Amount
	toChainID := args.ToChainID
	switch args.AdaptorID {
	case types.AdaptorWormhole:
		if mapped, ok := wormholeChainIDs[toChainID]; ok {
			toChainID = mapped
		}
	case types.AdaptorCctp:
		if mapped, ok := cctpChainIDs[toChainID]; ok {
			toChainID = mapped
		}
	case types.AdaptorAllbridge:
		if mapped, ok := allbridgeChainIDs[toChainID]; ok {
			toChainID = mapped
		}
		// Allbridge draws a protocol-determined amount, so the log records
		// the measured delta instead of the declared amount.
		after, err := r.deps.Balances.TokenBalance(req.UserTokenAccount)
		if err != nil {
			return nil, err
		}
		if after > before {
			loggedAmount = 0
		} else {
			loggedAmount = before - after
		}
	case types.AdaptorMayanSwift:
		mapped, ok := mayanChainIDs[toChainID]
		if !ok {
			return nil, bridgeerrors.ErrInvalidToChainID
		}
		toChainID = mapped
	}

	if err := r.verifyConsumed(req, useLamports, before, loggedAmount); err != nil {
		return nil, err
	}

	userAddress, err := types.DecodeUserAddress(args.ExtData)
	if err != nil {
		return nil, err
	}

	record := types.LogBridgeToVersion1{
		OrderID:     strconv.FormatUint(args.OrderID, 10),
		AdaptorID:   uint8(args.AdaptorID),
		To:          hex.EncodeToString(args.To),
		Amount:      loggedAmount,
		SwapType:    uint8(args.SwapType),
		ToChainID:   toChainID,
		BridgeToken: req.Mint.String(),
		SrcChainID:  constants.SolanaChainID,
		From:        req.Payer.String(),
		UserAddress: userAddress,
		Ext:         dispatch.Ext,
	}
	if r.sink != nil {
		r.sink(record)
	}
	r.log.Info().RawJSON("log_bridge_to_version1", []byte(record.JSON())).Msg("bridge dispatched")
	return &record, nil
}

// BridgeToLogSplCommission pays an SPL commission out of the user's token
// account and then dispatches. The commission account must hold the bridged
// mint.
func (r *Router) BridgeToLogSplCommission(req *Request, commissionRate uint16, commissionTokenAccount solana.PublicKey) (*types.LogBridgeToVersion1, error) {
	commission, err := commissionAmount(req.Args.Amount, commissionRate)
	if err != nil {
		return nil, err
	}
	info, err := r.deps.Inspector.TokenAccount(commissionTokenAccount)
	if err != nil {
		return nil, err
	}
	if !info.Mint.Equals(req.Mint) {
		return nil, bridgeerrors.ErrInvalidCommissionAccount
	}
	if err := r.deps.Tokens.TransferToken(req.UserTokenAccount, commissionTokenAccount, commission); err != nil {
		return nil, err
	}
	r.log.Info().
		Str("commission_to", commissionTokenAccount.String()).
		Uint64("commission_amount", commission).
		Msg("spl commission paid")
	return r.BridgeToLog(req)
}

// BridgeToLogSolCommission pays a native SOL commission from the payer and
// then dispatches.
func (r *Router) BridgeToLogSolCommission(req *Request, commissionRate uint16, commissionAccount solana.PublicKey) (*types.LogBridgeToVersion1, error) {
	commission, err := commissionAmount(req.Args.Amount, commissionRate)
	if err != nil {
		return nil, err
	}
	if err := r.deps.Native.TransferLamports(req.Payer, commissionAccount, commission); err != nil {
		return nil, err
	}
	r.log.Info().
		Str("commission_to", commissionAccount.String()).
		Uint64("commission_amount", commission).
		Msg("sol commission paid")
	return r.BridgeToLog(req)
}

func (r *Router) readBalance(req *Request, useLamports bool) (uint64, error) {
	if useLamports {
		return r.deps.Balances.LamportBalance(req.Payer)
	}
	return r.deps.Balances.TokenBalance(req.UserTokenAccount)
}

// verifyConsumed compares the declared amount with the observed delta.
// Lamport accounting is an inequality because rent and transaction fees also
// drain the payer; token accounting is exact, except for Wormhole's WSOL
// dust truncation.
func (r *Router) verifyConsumed(req *Request, useLamports bool, before, amount uint64) error {
	after, err := r.readBalance(req, useLamports)
	if err != nil {
		return err
	}
	if useLamports {
		if before < after+amount {
			return bridgeerrors.ErrAmountMustEqualConsumed
		}
		return nil
	}

	expected := amount
	if req.Args.SwapType == types.SwapTypeSwapAndBridge &&
		req.Args.AdaptorID == types.AdaptorWormhole &&
		req.Mint.Equals(constants.WrappedSOL) {
		// Wormhole truncates WSOL transfers to 8 decimals, leaving the last
		// digit behind.
		adjusted, err := utils.CheckedMulU64(amount/10, 10)
		if err != nil {
			return err
		}
		expected = adjusted
	}
	if before != after+expected {
		return bridgeerrors.ErrAmountMustEqualConsumed
	}
	return nil
}

// commissionAmount computes the fee for a rate expressed in basis points of
// the post-commission amount: fee = amount * rate / (10000 - rate).
func commissionAmount(amount uint64, rate uint16) (uint64, error) {
	if rate == 0 || rate > constants.CommissionRateLimit {
		return 0, bridgeerrors.ErrInvalidCommissionRate
	}
	scaled, err := utils.CheckedMulU64(amount, uint64(rate))
	if err != nil {
		return 0, err
	}
	return scaled / (constants.CommissionDenominator - uint64(rate)), nil
}
