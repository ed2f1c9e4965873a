package adaptors

import (
	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// Bridgers forwards into the Bridgers swap program. The selector in the
// payload chooses between the SPL (0x02) and native SOL (0x03) entries.
type Bridgers struct{}

// BridgersAccounts carries the protocol's receive token account and, for the
// native path, the program's scratch account.
type BridgersAccounts struct {
	DestTokenInfo solana.PublicKey
	// PdaAccount is only consulted for the native SOL selector.
	PdaAccount solana.PublicKey
}

func (BridgersAccounts) IsAdaptorAccounts() {}

const (
	bridgersSelectorSpl = 0x02
	bridgersSelectorSol = 0x03
)

type bridgersArgs struct {
	SelectorID      uint8
	FromToken       []byte
	Sender          []byte
	MinReturnAmount []byte
	ToToken         []byte
	Destination     []byte
}

func (*Bridgers) ID() types.AdaptorID { return types.AdaptorBridgers }

func (b *Bridgers) Build(req *bridgeout.Request) (*bridgeout.Dispatch, error) {
	accounts, ok := req.Accounts.(*BridgersAccounts)
	if !ok {
		return nil, bridgeerrors.ErrInvalidAccountsLength
	}
	var args bridgersArgs
	if err := decodeBorsh(req.Args.Data, &args); err != nil {
		return nil, err
	}

	data := []byte{args.SelectorID}
	data = append(data, utils.U64LE(req.Args.Amount)...)
	data = append(data, lengthPrefixed(args.FromToken)...)
	data = append(data, lengthPrefixed(args.Sender)...)
	data = append(data, lengthPrefixed(args.MinReturnAmount)...)
	data = append(data, lengthPrefixed(args.ToToken)...)
	data = append(data, lengthPrefixed(args.Destination)...)

	var metas solana.AccountMetaSlice
	switch args.SelectorID {
	case bridgersSelectorSpl:
		metas = solana.AccountMetaSlice{
			solana.Meta(req.UserTokenAccount).WRITE(),
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(constants.TokenProgram),
			solana.Meta(accounts.DestTokenInfo).WRITE(),
			solana.Meta(constants.BridgersVsInfo),
		}
	case bridgersSelectorSol:
		metas = solana.AccountMetaSlice{
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(constants.TokenProgram),
			solana.Meta(accounts.DestTokenInfo).WRITE(),
			solana.Meta(constants.BridgersVsInfo),
			solana.Meta(constants.SysvarRent),
			solana.Meta(constants.SystemProgram),
			solana.Meta(req.Mint),
			solana.Meta(accounts.PdaAccount).WRITE(),
		}
	default:
		return nil, bridgeerrors.ErrBridgersInvalidSelector
	}

	inst := solana.NewInstruction(constants.BridgersProgram, metas, data)
	return &bridgeout.Dispatch{Instructions: []solana.Instruction{inst}}, nil
}
