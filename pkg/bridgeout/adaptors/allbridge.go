package adaptors

import (
	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// Allbridge swaps into the Allbridge liquidity pool (swapAndBridge). The
// pool determines the consumed amount, so the router reconciles against the
// observed balance delta for this adaptor.
type Allbridge struct{}

// AllbridgeAccounts carries the pool account; everything else derives from
// the bridge, messenger and gas-oracle program seeds.
type AllbridgeAccounts struct {
	Pool solana.PublicKey
}

func (AllbridgeAccounts) IsAdaptorAccounts() {}

// allbridgeLocalChainID is this chain's slot in Allbridge's numbering.
const allbridgeLocalChainID = 4

// global:swap_and_bridge
var allbridgeSwapAndBridgeTag = []byte{204, 63, 169, 171, 186, 125, 86, 159}

type allbridgeArgs struct {
	Nonce             [32]byte
	ReceiveToken      [32]byte
	MessageWithSigner [32]byte
	VusdAmount        uint64
}

func (*Allbridge) ID() types.AdaptorID { return types.AdaptorAllbridge }

func (a *Allbridge) Build(req *bridgeout.Request) (*bridgeout.Dispatch, error) {
	accounts, ok := req.Accounts.(*AllbridgeAccounts)
	if !ok {
		return nil, bridgeerrors.ErrInvalidAccountsLength
	}
	var args allbridgeArgs
	if err := decodeBorsh(req.Args.Data, &args); err != nil {
		return nil, err
	}
	if req.Args.ToChainID > 0xff {
		return nil, bridgeerrors.ErrUnsafeConvert
	}
	chainID := byte(req.Args.ToChainID)

	data := make([]byte, 0, 113)
	data = append(data, allbridgeSwapAndBridgeTag...)
	data = append(data, args.Nonce[:]...)
	data = append(data, req.Args.To...)
	data = append(data, chainID)
	data = append(data, args.ReceiveToken[:]...)
	data = append(data, utils.U64LE(args.VusdAmount)...)
	if len(data) != 113 {
		return nil, bridgeerrors.ErrDeserializationError
	}

	lock, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("lock"), args.Nonce[:]}, constants.AllbridgeProgram)
	if err != nil {
		return nil, err
	}
	config, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("config")}, constants.AllbridgeProgram)
	if err != nil {
		return nil, err
	}
	otherBridgeToken, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("other_bridge_token"), {chainID}, args.ReceiveToken[:]},
		constants.AllbridgeProgram)
	if err != nil {
		return nil, err
	}
	messengerConfig, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("config")}, constants.AllbridgeMessagerProgram)
	if err != nil {
		return nil, err
	}
	sentMessage, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("sent_message"), args.MessageWithSigner[:]},
		constants.AllbridgeMessagerProgram)
	if err != nil {
		return nil, err
	}
	gasUsage, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("gas_usage"), {chainID}}, constants.AllbridgeMessagerProgram)
	if err != nil {
		return nil, err
	}
	bridgeToken, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("token"), req.Mint[:]}, constants.AllbridgeProgram)
	if err != nil {
		return nil, err
	}
	gasPrice, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("price_v2"), {chainID}}, constants.AllbridgeGasProgram)
	if err != nil {
		return nil, err
	}
	thisGasPrice, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("price_v2"), {allbridgeLocalChainID}}, constants.AllbridgeGasProgram)
	if err != nil {
		return nil, err
	}
	chainBridge, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("chain_bridge"), {chainID}}, constants.AllbridgeProgram)
	if err != nil {
		return nil, err
	}
	bridgeAuthority, _, err := solana.FindProgramAddress(
		[][]byte{config[:]}, constants.AllbridgeProgram)
	if err != nil {
		return nil, err
	}

	inst := solana.NewInstruction(
		constants.AllbridgeProgram,
		solana.AccountMetaSlice{
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(lock).WRITE(),
			solana.Meta(req.Mint),
			solana.Meta(config).WRITE(),
			solana.Meta(otherBridgeToken).WRITE(),
			solana.Meta(constants.AllbridgeMessagerProgram),
			solana.Meta(messengerConfig).WRITE(),
			solana.Meta(sentMessage).WRITE(),
			solana.Meta(gasUsage),
			solana.Meta(accounts.Pool).WRITE(),
			solana.Meta(bridgeToken).WRITE(),
			solana.Meta(gasPrice),
			solana.Meta(thisGasPrice),
			solana.Meta(chainBridge),
			solana.Meta(req.UserTokenAccount).WRITE(),
			solana.Meta(bridgeAuthority),
			solana.Meta(constants.TokenProgram),
			solana.Meta(constants.SystemProgram),
		},
		data,
	)
	return &bridgeout.Dispatch{Instructions: []solana.Instruction{inst}}, nil
}
