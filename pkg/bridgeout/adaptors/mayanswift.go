package adaptors

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// MayanSwift escrows into a Mayan Swift order account and submits the order.
// The escrow ATA is created idempotently and funded before the order call.
type MayanSwift struct{}

// MayanSwiftAccounts is empty: the order state derives from the order hash
// and the escrow is the state's associated token account.
type MayanSwiftAccounts struct{}

func (MayanSwiftAccounts) IsAdaptorAccounts() {}

var mayanSubmitOrderTag = []byte{32, 76, 41, 12, 39, 162, 132, 219}

type mayanSwiftArgs struct {
	NativeInput  bool
	FeeSubmit    uint64
	TokenOut     [32]byte
	AmountOutMin uint64
	FeeCancel    uint64
	FeeRefund    uint64
	Deadline     uint64
	FeeRateMayan uint8
	AuctionMode  uint8
	RandomKey    [32]byte
	OrderHash    [32]byte
}

func (*MayanSwift) ID() types.AdaptorID { return types.AdaptorMayanSwift }

func (m *MayanSwift) Build(req *bridgeout.Request) (*bridgeout.Dispatch, error) {
	if _, ok := req.Accounts.(*MayanSwiftAccounts); !ok {
		return nil, bridgeerrors.ErrInvalidAccountsLength
	}
	var args mayanSwiftArgs
	if err := decodeBorsh(req.Args.Data, &args); err != nil {
		return nil, err
	}
	destAddress, err := fixed32(req.Args.To)
	if err != nil {
		return nil, err
	}
	if req.Args.ToChainID > 0xffff {
		return nil, bridgeerrors.ErrUnsafeConvert
	}

	state, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("STATE_SOURCE"), args.OrderHash[:]}, constants.MayanSwiftProgram)
	if err != nil {
		return nil, err
	}
	createATA, stateAccount, err := createATAIdempotent(req.Payer, state, req.Mint)
	if err != nil {
		return nil, err
	}
	fund := token.NewTransferInstruction(
		req.Args.Amount, req.UserTokenAccount, stateAccount, req.Payer, nil,
	).Build()

	nativeInput := byte(0)
	if args.NativeInput {
		nativeInput = 1
	}

	data := make([]byte, 0, 198)
	data = append(data, mayanSubmitOrderTag...)
	data = append(data, utils.U64LE(req.Args.Amount)...)
	data = append(data, nativeInput)
	data = append(data, utils.U64LE(args.FeeSubmit)...)
	data = append(data, destAddress[:]...)
	var destChain [2]byte
	binary.LittleEndian.PutUint16(destChain[:], uint16(req.Args.ToChainID))
	data = append(data, destChain[:]...)
	data = append(data, args.TokenOut[:]...)
	data = append(data, utils.U64LE(args.AmountOutMin)...)
	data = append(data, utils.U64LE(0)...) // gas drop
	data = append(data, utils.U64LE(args.FeeCancel)...)
	data = append(data, utils.U64LE(args.FeeRefund)...)
	data = append(data, utils.U64LE(args.Deadline)...)
	var refAddress [32]byte
	data = append(data, refAddress[:]...)
	data = append(data, 0) // referrer fee rate
	data = append(data, args.FeeRateMayan)
	data = append(data, args.AuctionMode)
	data = append(data, args.RandomKey[:]...)

	order := solana.NewInstruction(
		constants.MayanSwiftProgram,
		solana.AccountMetaSlice{
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(state).WRITE(),
			solana.Meta(stateAccount).WRITE(),
			solana.Meta(req.UserTokenAccount).WRITE(),
			solana.Meta(req.Mint),
			solana.Meta(constants.MayanFeeManagerProgram),
			solana.Meta(constants.TokenProgram),
			solana.Meta(constants.SystemProgram),
		},
		data,
	)
	return &bridgeout.Dispatch{
		Instructions: []solana.Instruction{createATA, fund, order},
	}, nil
}
