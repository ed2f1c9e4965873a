package adaptors

import (
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// Wormhole dispatches through the Wormhole token bridge, either as a plain
// transfer or as a transfer-with-payload when a redeemer contract is set.
type Wormhole struct{}

// WormholeAccounts is empty: every account in the transfer is derived from
// the token bridge's and core bridge's fixed seeds.
type WormholeAccounts struct{}

func (WormholeAccounts) IsAdaptorAccounts() {}

const (
	wormholeTransferNative            = 5
	wormholeTransferWithPayloadNative = 12
)

type wormholeTransferArgs struct {
	Nonce          uint32
	Amount         uint64
	RelayerFee     uint64
	Recipient      [32]byte
	RecipientChain uint16
}

type wormholePayloadArgs struct {
	Nonce         uint32
	Amount        uint64
	Redeemer      [32]byte
	RedeemerChain uint16
	Payload       []byte
	CpiProgramID  *solana.PublicKey `bin:"optional"`
}

func (*Wormhole) ID() types.AdaptorID { return types.AdaptorWormhole }

func (w *Wormhole) Build(req *bridgeout.Request) (*bridgeout.Dispatch, error) {
	if _, ok := req.Accounts.(*WormholeAccounts); !ok {
		return nil, bridgeerrors.ErrInvalidAccountsLength
	}
	if len(req.Args.Data) < 40 {
		return nil, bridgeerrors.ErrAdaptorDataTooShort
	}
	nonce := binary.BigEndian.Uint64(req.Args.Data[:8])
	var redeemer [32]byte
	copy(redeemer[:], req.Args.Data[8:40])

	var instructions []solana.Instruction

	// A direct WSOL bridge wraps the payer's native SOL first.
	if req.Args.SwapType == types.SwapTypeBridge && req.Mint.Equals(constants.WrappedSOL) {
		instructions = append(instructions,
			system.NewTransferInstruction(req.Args.Amount, req.Payer, req.UserTokenAccount).Build(),
			token.NewSyncNativeInstruction(req.UserTokenAccount).Build(),
		)
	}

	config, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("config")}, constants.WormholeTokenBridgeProgram)
	if err != nil {
		return nil, err
	}
	custodyToken, _, err := solana.FindProgramAddress(
		[][]byte{req.Mint[:]}, constants.WormholeTokenBridgeProgram)
	if err != nil {
		return nil, err
	}
	transferAuthority, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("authority_signer")}, constants.WormholeTokenBridgeProgram)
	if err != nil {
		return nil, err
	}
	custodyAuthority, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("custody_signer")}, constants.WormholeTokenBridgeProgram)
	if err != nil {
		return nil, err
	}
	emitter, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("emitter")}, constants.WormholeTokenBridgeProgram)
	if err != nil {
		return nil, err
	}
	coreConfig, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("Bridge")}, constants.WormholeCoreProgram)
	if err != nil {
		return nil, err
	}
	emitterSequence, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("Sequence"), emitter[:]}, constants.WormholeCoreProgram)
	if err != nil {
		return nil, err
	}
	feeCollector, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("fee_collector")}, constants.WormholeCoreProgram)
	if err != nil {
		return nil, err
	}
	coreMessage, _, err := solana.FindProgramAddress(
		[][]byte{constants.SeedCoreMessage, utils.U64LE(nonce)}, constants.Program)
	if err != nil {
		return nil, err
	}

	instructions = append(instructions, token.NewApproveInstruction(
		req.Args.Amount, req.UserTokenAccount, transferAuthority, req.Payer, nil,
	).Build())

	withPayload := redeemer != [32]byte{}

	metas := solana.AccountMetaSlice{
		solana.Meta(req.Payer).WRITE().SIGNER(),
		solana.Meta(config),
		solana.Meta(req.UserTokenAccount).WRITE(),
		solana.Meta(req.Mint).WRITE(),
		solana.Meta(custodyToken).WRITE(),
		solana.Meta(transferAuthority),
		solana.Meta(custodyAuthority),
		solana.Meta(coreConfig).WRITE(),
		solana.Meta(coreMessage).WRITE().SIGNER(),
		solana.Meta(emitter),
		solana.Meta(emitterSequence).WRITE(),
		solana.Meta(feeCollector).WRITE(),
		solana.Meta(constants.SysvarClock),
	}
	if withPayload {
		// The payload form adds the sender account here.
		metas = append(metas, solana.Meta(req.Payer).WRITE().SIGNER())
	}
	metas = append(metas,
		solana.Meta(constants.SysvarRent),
		solana.Meta(constants.SystemProgram),
		solana.Meta(constants.WormholeCoreProgram),
		solana.Meta(constants.TokenProgram),
	)

	var data []byte
	if withPayload {
		body, err := bin.MarshalBorsh(&wormholePayloadArgs{
			Nonce:         uint32(nonce),
			Amount:        req.Args.Amount,
			Redeemer:      redeemer,
			RedeemerChain: uint16(req.Args.ToChainID),
			// The recipient bytes ride in the payload for the redeemer
			// contract to decode.
			Payload: req.Args.To,
		})
		if err != nil {
			return nil, err
		}
		data = append([]byte{wormholeTransferWithPayloadNative}, body...)
	} else {
		recipient, err := fixed32(req.Args.To)
		if err != nil {
			return nil, err
		}
		body, err := bin.MarshalBorsh(&wormholeTransferArgs{
			Nonce:          uint32(nonce),
			Amount:         req.Args.Amount,
			Recipient:      recipient,
			RecipientChain: uint16(req.Args.ToChainID),
		})
		if err != nil {
			return nil, err
		}
		data = append([]byte{wormholeTransferNative}, body...)
	}

	instructions = append(instructions, solana.NewInstruction(
		constants.WormholeTokenBridgeProgram, metas, data))
	return &bridgeout.Dispatch{Instructions: instructions}, nil
}
