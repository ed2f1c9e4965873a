package adaptors

import (
	"encoding/hex"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// Wanchain locks tokens with a Wanchain storeman group (userLock).
type Wanchain struct{}

// WanchainAccounts carries the vault token account for the bridged mint; the
// remaining accounts are fixed ids or derived from the admin-board seeds.
type WanchainAccounts struct {
	TokenVault solana.PublicKey
}

func (WanchainAccounts) IsAdaptorAccounts() {}

var wanchainUserLockTag = []byte{66, 17, 214, 126, 235, 133, 82, 114}

type wanchainArgs struct {
	SmgID         [32]byte
	TokenPairID   uint32
	Slip44ChainID uint32
}

func (*Wanchain) ID() types.AdaptorID { return types.AdaptorWanchain }

func (w *Wanchain) Build(req *bridgeout.Request) (*bridgeout.Dispatch, error) {
	accounts, ok := req.Accounts.(*WanchainAccounts)
	if !ok {
		return nil, bridgeerrors.ErrInvalidAccountsLength
	}
	var args wanchainArgs
	if err := decodeBorsh(req.Args.Data, &args); err != nil {
		return nil, err
	}
	if len(req.Args.To) < 20 {
		return nil, bridgeerrors.ErrAdaptorDataTooShort
	}

	// The destination rides as an ASCII 0x-prefixed uppercase-hex EVM
	// address of the trailing 20 bytes.
	formatted := "0x" + strings.ToUpper(hex.EncodeToString(req.Args.To[len(req.Args.To)-20:]))

	data := make([]byte, 0, 8+32+4+8+4+len(formatted))
	data = append(data, wanchainUserLockTag...)
	data = append(data, args.SmgID[:]...)
	data = append(data, utils.U32LE(args.TokenPairID)...)
	data = append(data, utils.U64LE(req.Args.Amount)...)
	data = append(data, lengthPrefixed([]byte(formatted))...)

	tokenPairAccount, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("TokenPairInfo"), utils.U32LE(args.TokenPairID)},
		constants.WanchainAdminBoardProgram)
	if err != nil {
		return nil, err
	}
	feeAccount, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("FeeData"), utils.U32LE(args.Slip44ChainID)},
		constants.WanchainCircleFeeProgram)
	if err != nil {
		return nil, err
	}

	inst := solana.NewInstruction(
		constants.WanchainProgram,
		solana.AccountMetaSlice{
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(constants.WanchainSolVault).WRITE(),
			solana.Meta(req.UserTokenAccount).WRITE(),
			solana.Meta(accounts.TokenVault).WRITE(),
			solana.Meta(req.Mint).WRITE(),
			solana.Meta(constants.WanchainFeeReceiver).WRITE(),
			solana.Meta(constants.WanchainAdminBoardProgram),
			solana.Meta(constants.WanchainConfigAccount),
			solana.Meta(tokenPairAccount).WRITE(),
			solana.Meta(feeAccount),
			solana.Meta(constants.TokenProgram),
			solana.Meta(constants.AssociatedTokenProgram),
			solana.Meta(constants.SystemProgram),
		},
		data,
	)
	return &bridgeout.Dispatch{Instructions: []solana.Instruction{inst}}, nil
}
