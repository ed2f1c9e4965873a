package adaptors

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

func newRequest(t *testing.T, id types.AdaptorID, accounts bridgeout.Accounts) *bridgeout.Request {
	t.Helper()
	payer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	userToken, err := utils.AssociatedTokenAccount(payer, mint)
	require.NoError(t, err)
	return &bridgeout.Request{
		Payer:            payer,
		Mint:             mint,
		UserTokenAccount: userToken,
		Args: &types.BridgeToArgs{
			AdaptorID: id,
			To:        make([]byte, 32),
			OrderID:   7,
			ToChainID: 1,
			Amount:    5_000,
			SwapType:  types.SwapTypeBridge,
		},
		Accounts: accounts,
	}
}

func instData(t *testing.T, inst solana.Instruction) []byte {
	t.Helper()
	data, err := inst.Data()
	require.NoError(t, err)
	return data
}

func TestRegisterAll(t *testing.T) {
	reg := bridgeout.NewRegistry()
	RegisterAll(reg)
	for _, id := range []types.AdaptorID{
		types.AdaptorBridgers, types.AdaptorWanchain, types.AdaptorCctp,
		types.AdaptorWormhole, types.AdaptorMeson, types.AdaptorDebridgeDln,
		types.AdaptorAllbridge, types.AdaptorMayanSwift,
	} {
		adaptor, err := reg.Get(id)
		require.NoError(t, err)
		assert.Equal(t, id, adaptor.ID())
	}
}

func TestMesonBuild(t *testing.T) {
	req := newRequest(t, types.AdaptorMeson, &MesonAccounts{TokenAccount: solana.NewWallet().PublicKey()})
	encoded := make([]byte, 32)
	initiator := make([]byte, 20)
	for i := range encoded {
		encoded[i] = byte(i)
	}
	for i := range initiator {
		initiator[i] = byte(0xa0 + i)
	}
	req.Args.Data = append(append([]byte{}, encoded...), initiator...)

	dispatch, err := (&Meson{}).Build(req)
	require.NoError(t, err)
	require.Len(t, dispatch.Instructions, 1)

	inst := dispatch.Instructions[0]
	assert.Equal(t, constants.MesonProgram, inst.ProgramID())

	data := instData(t, inst)
	require.Len(t, data, 1+32+20+8)
	assert.Equal(t, byte(mesonPostSwapTag), data[0])
	assert.Equal(t, encoded, data[1:33])
	assert.Equal(t, initiator, data[33:53])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, data[53:])

	accounts := inst.Accounts()
	require.Len(t, accounts, 9)
	assert.Equal(t, constants.SystemProgram, accounts[0].PublicKey)
	assert.Equal(t, constants.TokenProgram, accounts[1].PublicKey)
	assert.True(t, accounts[7].IsSigner)
	assert.Equal(t, req.Payer, accounts[7].PublicKey)
	assert.Equal(t, req.UserTokenAccount, accounts[8].PublicKey)

	assert.Contains(t, dispatch.Ext, "0x"+hex.EncodeToString(encoded))
	assert.Contains(t, dispatch.Ext, "0x"+hex.EncodeToString(initiator))
}

func TestMesonBuildGuards(t *testing.T) {
	req := newRequest(t, types.AdaptorMeson, &MesonAccounts{})
	req.Args.Data = make([]byte, 52)

	req.Args.SwapType = types.SwapTypeSwapAndBridge
	_, err := (&Meson{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrMesonSwapTypeUnsupported)

	req.Args.SwapType = types.SwapTypeBridge
	req.Args.Data = make([]byte, 51)
	_, err = (&Meson{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrAdaptorDataTooShort)

	req.Accounts = stubWrongAccounts{}
	_, err = (&Meson{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrInvalidAccountsLength)
}

type stubWrongAccounts struct{}

func (stubWrongAccounts) IsAdaptorAccounts() {}

func TestMesonEncodedHelpers(t *testing.T) {
	var encoded [32]byte
	for i := range encoded {
		encoded[i] = byte(i + 1)
	}
	decoded := DecodeMesonEncoded(encoded)
	assert.Equal(t, uint8(1), decoded.Version)
	assert.Equal(t, uint64(0x0203040506), decoded.Amount)
	assert.Equal(t, hex.EncodeToString(encoded[26:28]), decoded.OutChain)
	assert.Equal(t, encoded[31], decoded.InToken)

	changed, err := ChangeMesonAmount(encoded, 0x1122334455)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122334455), DecodeMesonEncoded(changed).Amount)
	assert.Equal(t, encoded[0], changed[0])
	assert.Equal(t, encoded[6:], changed[6:])

	_, err = ChangeMesonAmount(encoded, 1<<40)
	assert.ErrorIs(t, err, bridgeerrors.ErrUnsafeConvert)
}

func TestWormholeBuildPlainTransfer(t *testing.T) {
	req := newRequest(t, types.AdaptorWormhole, &WormholeAccounts{})
	data := make([]byte, 40)
	binary.BigEndian.PutUint64(data[:8], 0x2766c)
	req.Args.Data = data
	req.Args.ToChainID = 2
	recipient := make([]byte, 32)
	recipient[31] = 0x55
	req.Args.To = recipient

	dispatch, err := (&Wormhole{}).Build(req)
	require.NoError(t, err)
	// approve, then the bridge call
	require.Len(t, dispatch.Instructions, 2)

	bridge := dispatch.Instructions[1]
	assert.Equal(t, constants.WormholeTokenBridgeProgram, bridge.ProgramID())

	payload := instData(t, bridge)
	assert.Equal(t, byte(wormholeTransferNative), payload[0])
	var decoded wormholeTransferArgs
	require.NoError(t, bin.NewBorshDecoder(payload[1:]).Decode(&decoded))
	assert.Equal(t, uint32(0x2766c), decoded.Nonce)
	assert.Equal(t, uint64(5_000), decoded.Amount)
	assert.Equal(t, uint64(0), decoded.RelayerFee)
	assert.Equal(t, [32]byte(recipient), decoded.Recipient)
	assert.Equal(t, uint16(2), decoded.RecipientChain)

	accounts := bridge.Accounts()
	require.Len(t, accounts, 17)
	assert.Equal(t, req.Payer, accounts[0].PublicKey)
	assert.Equal(t, constants.SysvarClock, accounts[12].PublicKey)
	assert.Equal(t, constants.WormholeCoreProgram, accounts[15].PublicKey)
	assert.Equal(t, constants.TokenProgram, accounts[16].PublicKey)
}

func TestWormholeBuildWithPayload(t *testing.T) {
	req := newRequest(t, types.AdaptorWormhole, &WormholeAccounts{})
	data := make([]byte, 40)
	binary.BigEndian.PutUint64(data[:8], 9)
	data[8] = 0x01 // nonzero redeemer selects the payload form
	req.Args.Data = data
	req.Args.To = []byte{0xaa, 0xbb}

	dispatch, err := (&Wormhole{}).Build(req)
	require.NoError(t, err)
	require.Len(t, dispatch.Instructions, 2)

	bridge := dispatch.Instructions[1]
	payload := instData(t, bridge)
	assert.Equal(t, byte(wormholeTransferWithPayloadNative), payload[0])
	var decoded wormholePayloadArgs
	require.NoError(t, bin.NewBorshDecoder(payload[1:]).Decode(&decoded))
	assert.Equal(t, []byte{0xaa, 0xbb}, decoded.Payload)
	assert.Nil(t, decoded.CpiProgramID)

	// the payload form adds the sender account
	accounts := bridge.Accounts()
	require.Len(t, accounts, 18)
	assert.Equal(t, req.Payer, accounts[13].PublicKey)
	assert.True(t, accounts[13].IsSigner)
}

func TestWormholeBuildWrapsNativeSOL(t *testing.T) {
	req := newRequest(t, types.AdaptorWormhole, &WormholeAccounts{})
	req.Mint = constants.WrappedSOL
	req.Args.Data = make([]byte, 40)

	dispatch, err := (&Wormhole{}).Build(req)
	require.NoError(t, err)
	// system transfer, sync native, approve, bridge
	require.Len(t, dispatch.Instructions, 4)
	assert.Equal(t, constants.SystemProgram, dispatch.Instructions[0].ProgramID())
	assert.Equal(t, constants.TokenProgram, dispatch.Instructions[1].ProgramID())

	// No wrap on the swap-and-bridge path: the swap already produced WSOL.
	req.Args.SwapType = types.SwapTypeSwapAndBridge
	dispatch, err = (&Wormhole{}).Build(req)
	require.NoError(t, err)
	assert.Len(t, dispatch.Instructions, 2)
}

func TestCctpBuild(t *testing.T) {
	accounts := &CctpAccounts{
		MessageSentEventData: solana.NewWallet().PublicKey(),
		FeeTokenAccount:      solana.NewWallet().PublicKey(),
	}
	req := newRequest(t, types.AdaptorCctp, accounts)
	req.Args.To = make([]byte, 20)
	req.Args.ToChainID = 3

	dispatch, err := (&Cctp{}).Build(req)
	require.NoError(t, err)
	require.Len(t, dispatch.Instructions, 1)
	assert.Nil(t, dispatch.Fee)

	burn := dispatch.Instructions[0]
	assert.Equal(t, constants.CctpProgram, burn.ProgramID())

	data := instData(t, burn)
	assert.Equal(t, []byte{215, 60, 61, 46, 114, 55, 128, 176}, data[:8])
	assert.Equal(t, uint64(5_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[16:20]))
	assert.Len(t, data, 8+8+4+20)

	metas := burn.Accounts()
	require.Len(t, metas, 17)
	assert.Equal(t, accounts.MessageSentEventData, metas[10].PublicKey)
	assert.True(t, metas[10].IsSigner)
	assert.Equal(t, constants.CctpMessageProgram, metas[11].PublicKey)
	assert.Equal(t, constants.CctpProgram, metas[16].PublicKey)
}

func TestCctpBuildWithRedeemFee(t *testing.T) {
	accounts := &CctpAccounts{
		MessageSentEventData: solana.NewWallet().PublicKey(),
		FeeTokenAccount:      solana.NewWallet().PublicKey(),
	}
	req := newRequest(t, types.AdaptorCctp, accounts)
	req.Args.Data = utils.U64LE(300)

	dispatch, err := (&Cctp{}).Build(req)
	require.NoError(t, err)
	require.Len(t, dispatch.Instructions, 2)

	require.NotNil(t, dispatch.Fee)
	assert.Equal(t, uint64(300), dispatch.Fee.Amount)
	assert.Equal(t, accounts.FeeTokenAccount.String(), dispatch.Fee.To)

	// The burn carries the amount net of the fee.
	data := instData(t, dispatch.Instructions[1])
	assert.Equal(t, uint64(4_700), binary.LittleEndian.Uint64(data[8:16]))

	req.Args.Data = utils.U64LE(6_000)
	_, err = (&Cctp{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrCalculationError)
}

func TestAllbridgeBuild(t *testing.T) {
	args := allbridgeArgs{VusdAmount: 4_400}
	for i := range args.Nonce {
		args.Nonce[i] = byte(i)
	}
	encoded, err := bin.MarshalBorsh(&args)
	require.NoError(t, err)

	req := newRequest(t, types.AdaptorAllbridge, &AllbridgeAccounts{Pool: solana.NewWallet().PublicKey()})
	req.Args.Data = encoded
	req.Args.ToChainID = 2

	dispatch, err := (&Allbridge{}).Build(req)
	require.NoError(t, err)
	require.Len(t, dispatch.Instructions, 1)

	inst := dispatch.Instructions[0]
	assert.Equal(t, constants.AllbridgeProgram, inst.ProgramID())

	data := instData(t, inst)
	require.Len(t, data, 113)
	assert.Equal(t, []byte{204, 63, 169, 171, 186, 125, 86, 159}, data[:8])
	assert.Equal(t, args.Nonce[:], data[8:40])
	assert.Equal(t, byte(2), data[72])
	assert.Equal(t, uint64(4_400), binary.LittleEndian.Uint64(data[105:]))

	require.Len(t, inst.Accounts(), 19)
	assert.Equal(t, req.UserTokenAccount, inst.Accounts()[15].PublicKey)
}

func TestAllbridgeBuildRejectsBadLength(t *testing.T) {
	encoded, err := bin.MarshalBorsh(&allbridgeArgs{})
	require.NoError(t, err)

	req := newRequest(t, types.AdaptorAllbridge, &AllbridgeAccounts{})
	req.Args.Data = encoded
	req.Args.To = make([]byte, 31)
	_, err = (&Allbridge{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrDeserializationError)

	req.Args.To = make([]byte, 32)
	req.Args.ToChainID = 300
	_, err = (&Allbridge{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrUnsafeConvert)
}

func TestWanchainBuild(t *testing.T) {
	args := wanchainArgs{TokenPairID: 17, Slip44ChainID: 60}
	for i := range args.SmgID {
		args.SmgID[i] = 0x42
	}
	encoded, err := bin.MarshalBorsh(&args)
	require.NoError(t, err)

	vault := solana.NewWallet().PublicKey()
	req := newRequest(t, types.AdaptorWanchain, &WanchainAccounts{TokenVault: vault})
	req.Args.Data = encoded
	to := make([]byte, 32)
	copy(to[12:], []byte{0xc3, 0x80, 0xbe, 0xda, 0xdc, 0x49, 0x35, 0xdd, 0x96, 0xdd, 0xc6, 0x7d, 0xc0, 0x57, 0xbe, 0xd0, 0x77, 0x38, 0xe8, 0xaf})
	req.Args.To = to

	dispatch, err := (&Wanchain{}).Build(req)
	require.NoError(t, err)
	require.Len(t, dispatch.Instructions, 1)

	inst := dispatch.Instructions[0]
	data := instData(t, inst)
	assert.Equal(t, []byte{66, 17, 214, 126, 235, 133, 82, 114}, data[:8])
	assert.Equal(t, args.SmgID[:], data[8:40])
	assert.Equal(t, uint32(17), binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, uint64(5_000), binary.LittleEndian.Uint64(data[44:52]))
	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(data[52:56]))
	assert.Equal(t, "0xC380BEDADC4935DD96DDC67DC057BED07738E8AF", string(data[56:]))

	metas := inst.Accounts()
	require.Len(t, metas, 13)
	assert.Equal(t, constants.WanchainSolVault, metas[1].PublicKey)
	assert.Equal(t, vault, metas[3].PublicKey)
	assert.Equal(t, constants.WanchainFeeReceiver, metas[5].PublicKey)
	assert.Equal(t, constants.WanchainConfigAccount, metas[7].PublicKey)
}

func TestBridgersBuild(t *testing.T) {
	args := bridgersArgs{
		SelectorID:      bridgersSelectorSpl,
		FromToken:       []byte("from"),
		Sender:          []byte("sender"),
		MinReturnAmount: []byte("1"),
		ToToken:         []byte("to"),
		Destination:     []byte("dest"),
	}
	encoded, err := bin.MarshalBorsh(&args)
	require.NoError(t, err)

	accounts := &BridgersAccounts{
		DestTokenInfo: solana.NewWallet().PublicKey(),
		PdaAccount:    solana.NewWallet().PublicKey(),
	}
	req := newRequest(t, types.AdaptorBridgers, accounts)
	req.Args.Data = encoded

	dispatch, err := (&Bridgers{}).Build(req)
	require.NoError(t, err)
	inst := dispatch.Instructions[0]
	assert.Equal(t, constants.BridgersProgram, inst.ProgramID())

	data := instData(t, inst)
	assert.Equal(t, byte(bridgersSelectorSpl), data[0])
	assert.Equal(t, uint64(5_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[9:13]))
	assert.Equal(t, []byte("from"), data[13:17])

	metas := inst.Accounts()
	require.Len(t, metas, 5)
	assert.Equal(t, req.UserTokenAccount, metas[0].PublicKey)
	assert.Equal(t, constants.BridgersVsInfo, metas[4].PublicKey)

	args.SelectorID = bridgersSelectorSol
	encoded, err = bin.MarshalBorsh(&args)
	require.NoError(t, err)
	req.Args.Data = encoded
	dispatch, err = (&Bridgers{}).Build(req)
	require.NoError(t, err)
	metas = dispatch.Instructions[0].Accounts()
	require.Len(t, metas, 8)
	assert.Equal(t, accounts.PdaAccount, metas[7].PublicKey)

	args.SelectorID = 0x09
	encoded, err = bin.MarshalBorsh(&args)
	require.NoError(t, err)
	req.Args.Data = encoded
	_, err = (&Bridgers{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrBridgersInvalidSelector)
}

func TestDebridgeDlnBuild(t *testing.T) {
	referral := uint32(31337)
	args := dlnArgs{
		OrderArgs: dlnCreateOrderArgs{
			GiveOriginalAmount:       5_000,
			Take:                     dlnOffer{TokenAddress: []byte{1, 2, 3}},
			ReceiverDst:              []byte{9, 9},
			GivePatchAuthoritySrc:    solana.NewWallet().PublicKey(),
			OrderAuthorityAddressDst: []byte{8},
		},
		ReferralCode: &referral,
		Nonce:        12,
		Metadata:     []byte{0xca, 0xfe},
		OrderID:      []byte{0x01, 0x02},
	}
	encoded, err := bin.MarshalBorsh(&args)
	require.NoError(t, err)

	req := newRequest(t, types.AdaptorDebridgeDln, &DebridgeDlnAccounts{})
	req.Args.Data = encoded

	dispatch, err := (&DebridgeDln{}).Build(req)
	require.NoError(t, err)
	inst := dispatch.Instructions[0]
	assert.Equal(t, constants.DebridgeDlnProgram, inst.ProgramID())

	data := instData(t, inst)
	assert.Equal(t, []byte{130, 131, 98, 190, 40, 206, 68, 50}, data[:8])

	orderEncoded, err := bin.MarshalBorsh(&args.OrderArgs)
	require.NoError(t, err)
	offset := 8 + len(orderEncoded)
	assert.Equal(t, orderEncoded, data[8:offset])
	// no affiliate fee, then referral option
	assert.Equal(t, byte(0), data[offset])
	assert.Equal(t, byte(1), data[offset+1])
	assert.Equal(t, referral, binary.LittleEndian.Uint32(data[offset+2:offset+6]))
	// nonce, then the double-prefixed metadata
	assert.Equal(t, uint64(12), binary.LittleEndian.Uint64(data[offset+6:offset+14]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(data[offset+14:offset+18]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[offset+18:offset+22]))
	assert.Equal(t, []byte{0xca, 0xfe}, data[offset+22:])

	require.Len(t, inst.Accounts(), 12)
	assert.Equal(t, req.Payer, inst.Accounts()[0].PublicKey)
	assert.Equal(t, req.Mint, inst.Accounts()[2].PublicKey)

	req.Args.SwapType = types.SwapTypeSwapAndBridge
	_, err = (&DebridgeDln{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrDebridgeSwapTypeUnsupported)
}

func TestMayanSwiftBuild(t *testing.T) {
	args := mayanSwiftArgs{
		NativeInput:  true,
		FeeSubmit:    11,
		AmountOutMin: 22,
		FeeCancel:    33,
		FeeRefund:    44,
		Deadline:     55,
		FeeRateMayan: 6,
		AuctionMode:  1,
	}
	for i := range args.OrderHash {
		args.OrderHash[i] = byte(i)
		args.RandomKey[i] = byte(0x80 + i)
	}
	encoded, err := bin.MarshalBorsh(&args)
	require.NoError(t, err)

	req := newRequest(t, types.AdaptorMayanSwift, &MayanSwiftAccounts{})
	req.Args.Data = encoded
	req.Args.ToChainID = 23

	dispatch, err := (&MayanSwift{}).Build(req)
	require.NoError(t, err)
	// create escrow ATA, fund it, submit the order
	require.Len(t, dispatch.Instructions, 3)
	assert.Equal(t, constants.AssociatedTokenProgram, dispatch.Instructions[0].ProgramID())
	assert.Equal(t, constants.TokenProgram, dispatch.Instructions[1].ProgramID())

	order := dispatch.Instructions[2]
	assert.Equal(t, constants.MayanSwiftProgram, order.ProgramID())
	data := instData(t, order)
	require.Len(t, data, 198)
	assert.Equal(t, []byte{32, 76, 41, 12, 39, 162, 132, 219}, data[:8])
	assert.Equal(t, uint64(5_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, byte(1), data[16])
	assert.Equal(t, uint64(11), binary.LittleEndian.Uint64(data[17:25]))
	assert.Equal(t, uint16(23), binary.LittleEndian.Uint16(data[57:59]))
	assert.Equal(t, args.RandomKey[:], data[166:])

	require.Len(t, order.Accounts(), 9)
	state, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("STATE_SOURCE"), args.OrderHash[:]}, constants.MayanSwiftProgram)
	require.NoError(t, err)
	assert.Equal(t, state, order.Accounts()[2].PublicKey)

	req.Args.To = make([]byte, 33)
	_, err = (&MayanSwift{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrUnsafeConvert)

	req.Args.To = make([]byte, 32)
	req.Args.ToChainID = 1 << 17
	_, err = (&MayanSwift{}).Build(req)
	assert.ErrorIs(t, err, bridgeerrors.ErrUnsafeConvert)
}
