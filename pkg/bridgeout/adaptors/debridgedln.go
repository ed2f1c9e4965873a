package adaptors

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// DebridgeDln places a limit order with deBridge's DLN source program
// (createOrderWithNonce).
type DebridgeDln struct{}

// DebridgeDlnAccounts is empty: every account derives from the DLN program's
// seeds, the order id and the maker.
type DebridgeDlnAccounts struct{}

func (DebridgeDlnAccounts) IsAdaptorAccounts() {}

var debridgeCreateOrderTag = []byte{130, 131, 98, 190, 40, 206, 68, 50}

type dlnOffer struct {
	ChainID      [32]byte
	TokenAddress []byte
	Amount       [32]byte
}

type dlnCreateOrderArgs struct {
	GiveOriginalAmount          uint64
	Take                        dlnOffer
	ReceiverDst                 []byte
	ExternalCall                *[]byte `bin:"optional"`
	GivePatchAuthoritySrc       solana.PublicKey
	AllowedCancelBeneficiarySrc *solana.PublicKey `bin:"optional"`
	OrderAuthorityAddressDst    []byte
	AllowedTakerDst             *[]byte `bin:"optional"`
}

type dlnAffiliateFee struct {
	Beneficiary *solana.PublicKey `bin:"optional"`
	Amount      *uint64           `bin:"optional"`
}

type dlnArgs struct {
	OrderArgs    dlnCreateOrderArgs
	AffiliateFee *dlnAffiliateFee `bin:"optional"`
	ReferralCode *uint32          `bin:"optional"`
	Nonce        uint64
	Metadata     []byte
	OrderID      []byte
}

func (*DebridgeDln) ID() types.AdaptorID { return types.AdaptorDebridgeDln }

func (d *DebridgeDln) Build(req *bridgeout.Request) (*bridgeout.Dispatch, error) {
	if _, ok := req.Accounts.(*DebridgeDlnAccounts); !ok {
		return nil, bridgeerrors.ErrInvalidAccountsLength
	}
	if req.Args.SwapType != types.SwapTypeBridge {
		return nil, bridgeerrors.ErrDebridgeSwapTypeUnsupported
	}
	var args dlnArgs
	if err := decodeBorsh(req.Args.Data, &args); err != nil {
		return nil, err
	}

	orderEncoded, err := bin.MarshalBorsh(&args.OrderArgs)
	if err != nil {
		return nil, err
	}

	data := append([]byte{}, debridgeCreateOrderTag...)
	data = append(data, orderEncoded...)
	if args.AffiliateFee != nil {
		feeEncoded, err := bin.MarshalBorsh(args.AffiliateFee)
		if err != nil {
			return nil, err
		}
		data = append(data, feeEncoded...)
	} else {
		data = append(data, 0)
	}
	if args.ReferralCode != nil {
		data = append(data, 1)
		data = append(data, utils.U32LE(*args.ReferralCode)...)
	} else {
		data = append(data, 0)
	}
	data = append(data, utils.U64LE(args.Nonce)...)
	// The metadata rides double length-prefixed: the outer u32 counts the
	// encoded vector, prefix included.
	metadataEncoded := lengthPrefixed(args.Metadata)
	data = append(data, utils.U32LE(uint32(len(metadataEncoded)))...)
	data = append(data, metadataEncoded...)

	state, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("STATE")}, constants.DebridgeDlnProgram)
	if err != nil {
		return nil, err
	}
	giveOrderState, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("GIVE_ORDER_STATE"), args.OrderID}, constants.DebridgeDlnProgram)
	if err != nil {
		return nil, err
	}
	authorizedNativeSender, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("AUTHORIZED_NATIVE_SENDER"), args.OrderArgs.Take.ChainID[:]},
		constants.DebridgeDlnProgram)
	if err != nil {
		return nil, err
	}
	giveOrderWallet, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("GIVE_ORDER_WALLET"), args.OrderID}, constants.DebridgeDlnProgram)
	if err != nil {
		return nil, err
	}
	nonceMaster, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("NONCE"), req.Payer[:]}, constants.DebridgeDlnProgram)
	if err != nil {
		return nil, err
	}
	feeLedgerWallet, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("FEE_LEDGER_WALLET"), req.Mint[:]}, constants.DebridgeDlnProgram)
	if err != nil {
		return nil, err
	}

	inst := solana.NewInstruction(
		constants.DebridgeDlnProgram,
		solana.AccountMetaSlice{
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(state),
			solana.Meta(req.Mint).WRITE(),
			solana.Meta(giveOrderState).WRITE(),
			solana.Meta(authorizedNativeSender),
			solana.Meta(req.UserTokenAccount).WRITE(),
			solana.Meta(giveOrderWallet).WRITE(),
			solana.Meta(nonceMaster).WRITE(),
			solana.Meta(feeLedgerWallet).WRITE(),
			solana.Meta(constants.SystemProgram),
			solana.Meta(constants.TokenProgram),
			solana.Meta(constants.AssociatedTokenProgram),
		},
		data,
	)
	return &bridgeout.Dispatch{Instructions: []solana.Instruction{inst}}, nil
}
