package bridgeout

import (
	"encoding/hex"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/runtime"
	"github.com/sigweihq/xbridge/pkg/types"
)

type routerFixture struct {
	mem    *runtime.Memory
	reg    *Registry
	router *Router
	events []types.LogBridgeToVersion1

	payer     solana.PublicKey
	mint      solana.PublicKey
	userToken solana.PublicKey
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		mem:       runtime.NewMemory(),
		reg:       NewRegistry(),
		payer:     solana.NewWallet().PublicKey(),
		mint:      solana.NewWallet().PublicKey(),
		userToken: solana.NewWallet().PublicKey(),
	}
	f.router = NewRouter(f.reg, Deps{
		Balances:  f.mem,
		Inspector: f.mem,
		Invoker:   f.mem,
		Tokens:    f.mem,
		Native:    f.mem,
	}, zerolog.Nop(), func(rec types.LogBridgeToVersion1) {
		f.events = append(f.events, rec)
	})
	return f
}

func (f *routerFixture) request(id types.AdaptorID, amount uint64) *Request {
	return &Request{
		Payer:            f.payer,
		Mint:             f.mint,
		UserTokenAccount: f.userToken,
		Args: &types.BridgeToArgs{
			AdaptorID: id,
			To:        []byte{0xde, 0xad, 0xbe, 0xef},
			OrderID:   42,
			ToChainID: 99,
			Amount:    amount,
			SwapType:  types.SwapTypeBridge,
			ExtData:   types.EncodeExtData("0x00c0ffee"),
		},
		Accounts: stubAccounts{},
	}
}

// registerConsuming registers a stub adaptor whose dispatched instruction
// drains the given amount from the user token account.
func (f *routerFixture) registerConsuming(id types.AdaptorID, drain int64) {
	f.reg.Register(&stubAdaptor{id: id, build: func(*Request) (*Dispatch, error) {
		inst := solana.NewInstruction(constants.Program, solana.AccountMetaSlice{}, nil)
		return &Dispatch{Instructions: []solana.Instruction{inst}, Ext: "ext-ok"}, nil
	}})
	f.mem.InvokeFunc = func(solana.Instruction) error {
		return f.mem.AdjustTokenBalance(f.userToken, -drain)
	}
}

func TestBridgeToLog(t *testing.T) {
	f := newRouterFixture(t)
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 1000)
	f.registerConsuming(types.AdaptorMeson, 600)

	rec, err := f.router.BridgeToLog(f.request(types.AdaptorMeson, 600))
	require.NoError(t, err)

	assert.Equal(t, "42", rec.OrderID)
	assert.Equal(t, uint8(types.AdaptorMeson), rec.AdaptorID)
	assert.Equal(t, hex.EncodeToString([]byte{0xde, 0xad, 0xbe, 0xef}), rec.To)
	assert.Equal(t, uint64(600), rec.Amount)
	assert.Equal(t, uint64(99), rec.ToChainID)
	assert.Equal(t, f.mint.String(), rec.BridgeToken)
	assert.Equal(t, uint16(501), rec.SrcChainID)
	assert.Equal(t, f.payer.String(), rec.From)
	assert.Equal(t, "0x00c0ffee", rec.UserAddress)
	assert.Equal(t, "ext-ok", rec.Ext)

	require.Len(t, f.events, 1)
	assert.Equal(t, *rec, f.events[0])
	assert.Len(t, f.mem.Invoked, 1)
}

func TestBridgeToLogConsumedMismatch(t *testing.T) {
	f := newRouterFixture(t)
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 1000)
	f.registerConsuming(types.AdaptorMeson, 599)

	_, err := f.router.BridgeToLog(f.request(types.AdaptorMeson, 600))
	assert.ErrorIs(t, err, bridgeerrors.ErrAmountMustEqualConsumed)
	assert.Empty(t, f.events)
}

func TestBridgeToLogLamportAccounting(t *testing.T) {
	f := newRouterFixture(t)
	f.mint = constants.WrappedSOL
	f.mem.SetLamports(f.payer, 10_000)

	// Rent and transaction fees drain lamports beyond the bridged amount, so
	// the check is an inequality.
	f.mem.InvokeFunc = func(solana.Instruction) error {
		f.mem.SetLamports(f.payer, 10_000-700)
		return nil
	}
	f.reg.Register(&stubAdaptor{id: types.AdaptorMeson, build: func(*Request) (*Dispatch, error) {
		inst := solana.NewInstruction(constants.Program, solana.AccountMetaSlice{}, nil)
		return &Dispatch{Instructions: []solana.Instruction{inst}}, nil
	}})

	rec, err := f.router.BridgeToLog(f.request(types.AdaptorMeson, 600))
	require.NoError(t, err)
	assert.Equal(t, uint64(600), rec.Amount)

	// Spending less than the declared amount is rejected.
	f.mem.SetLamports(f.payer, 10_000)
	f.mem.InvokeFunc = func(solana.Instruction) error {
		f.mem.SetLamports(f.payer, 10_000-500)
		return nil
	}
	_, err = f.router.BridgeToLog(f.request(types.AdaptorMeson, 600))
	assert.ErrorIs(t, err, bridgeerrors.ErrAmountMustEqualConsumed)
}

func TestBridgeToLogChainIDRemap(t *testing.T) {
	f := newRouterFixture(t)
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 1000)
	f.registerConsuming(types.AdaptorWormhole, 600)

	req := f.request(types.AdaptorWormhole, 600)
	req.Args.ToChainID = 23
	rec, err := f.router.BridgeToLog(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(42161), rec.ToChainID)

	// Values outside the table pass through untouched.
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 1000)
	req = f.request(types.AdaptorWormhole, 600)
	req.Args.ToChainID = 77
	rec, err = f.router.BridgeToLog(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), rec.ToChainID)
}

func TestBridgeToLogMayanRejectsUnknownChain(t *testing.T) {
	f := newRouterFixture(t)
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 1000)
	f.registerConsuming(types.AdaptorMayanSwift, 600)

	req := f.request(types.AdaptorMayanSwift, 600)
	req.Args.ToChainID = 3
	_, err := f.router.BridgeToLog(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrInvalidToChainID)
}

func TestBridgeToLogAllbridgeLogsMeasuredDelta(t *testing.T) {
	f := newRouterFixture(t)
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 1000)
	f.registerConsuming(types.AdaptorAllbridge, 550)

	req := f.request(types.AdaptorAllbridge, 600)
	req.Args.ToChainID = 2
	rec, err := f.router.BridgeToLog(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(550), rec.Amount)
	assert.Equal(t, uint64(56), rec.ToChainID)
}

func TestBridgeToLogWormholeWsolDust(t *testing.T) {
	f := newRouterFixture(t)
	f.mint = constants.WrappedSOL
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 1000)
	f.registerConsuming(types.AdaptorWormhole, 600)

	// Wormhole truncates the last decimal of a WSOL transfer; a 605 dispatch
	// only moves 600.
	req := f.request(types.AdaptorWormhole, 605)
	req.Args.SwapType = types.SwapTypeSwapAndBridge
	rec, err := f.router.BridgeToLog(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(605), rec.Amount)
}

func TestBridgeToLogRejectsBadInput(t *testing.T) {
	f := newRouterFixture(t)
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 1000)

	req := f.request(types.AdaptorMeson, 600)
	req.Args.SwapType = types.SwapType(7)
	_, err := f.router.BridgeToLog(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrInvalidSwapType)

	_, err = f.router.BridgeToLog(f.request(types.AdaptorID(200), 600))
	assert.ErrorIs(t, err, bridgeerrors.ErrInvalidAdaptorID)
}

func TestBridgeToLogRejectsInvalidUserAddress(t *testing.T) {
	f := newRouterFixture(t)
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 1000)
	f.registerConsuming(types.AdaptorMeson, 600)

	req := f.request(types.AdaptorMeson, 600)
	req.Args.ExtData = []byte{2, 0, 0, 0, 0xff, 0xfe}
	_, err := f.router.BridgeToLog(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrInvalidUserAddress)
}

func TestBridgeToLogSplCommission(t *testing.T) {
	f := newRouterFixture(t)
	commissionAccount := solana.NewWallet().PublicKey()
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 20_000)
	f.mem.SetTokenAccount(commissionAccount, f.mint, solana.NewWallet().PublicKey(), 0)
	f.registerConsuming(types.AdaptorMeson, 9900)

	// rate 100 of amount 9900: 9900*100/(10000-100) = 100
	rec, err := f.router.BridgeToLogSplCommission(f.request(types.AdaptorMeson, 9900), 100, commissionAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(9900), rec.Amount)

	balance, err := f.mem.TokenBalance(commissionAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)

	balance, err = f.mem.TokenBalance(f.userToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), balance)
}

func TestBridgeToLogSplCommissionValidation(t *testing.T) {
	f := newRouterFixture(t)
	commissionAccount := solana.NewWallet().PublicKey()
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 20_000)

	_, err := f.router.BridgeToLogSplCommission(f.request(types.AdaptorMeson, 9900), 0, commissionAccount)
	assert.ErrorIs(t, err, bridgeerrors.ErrInvalidCommissionRate)

	_, err = f.router.BridgeToLogSplCommission(f.request(types.AdaptorMeson, 9900), 301, commissionAccount)
	assert.ErrorIs(t, err, bridgeerrors.ErrInvalidCommissionRate)

	otherMint := solana.NewWallet().PublicKey()
	f.mem.SetTokenAccount(commissionAccount, otherMint, solana.NewWallet().PublicKey(), 0)
	_, err = f.router.BridgeToLogSplCommission(f.request(types.AdaptorMeson, 9900), 100, commissionAccount)
	assert.ErrorIs(t, err, bridgeerrors.ErrInvalidCommissionAccount)
}

func TestBridgeToLogSolCommission(t *testing.T) {
	f := newRouterFixture(t)
	commissionAccount := solana.NewWallet().PublicKey()
	f.mem.SetLamports(f.payer, 1000)
	f.mem.SetTokenAccount(f.userToken, f.mint, f.payer, 10_000)
	f.registerConsuming(types.AdaptorMeson, 3900)

	// rate 250 of amount 3900: 3900*250/(10000-250) = 100
	_, err := f.router.BridgeToLogSolCommission(f.request(types.AdaptorMeson, 3900), 250, commissionAccount)
	require.NoError(t, err)

	payerLamports, err := f.mem.LamportBalance(f.payer)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), payerLamports)

	commissionLamports, err := f.mem.LamportBalance(commissionAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), commissionLamports)
}
