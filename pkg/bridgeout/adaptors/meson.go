package adaptors

import (
	"encoding/hex"
	"encoding/json"

	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
)

// Meson posts a swap into the Meson protocol's postSwapFromContract entry.
type Meson struct{}

// MesonAccounts carries the one account the caller must supply; the rest of
// the account list is derived from the program's seeds.
type MesonAccounts struct {
	// TokenAccount is the protocol's pool token account for the mint.
	TokenAccount solana.PublicKey
}

func (MesonAccounts) IsAdaptorAccounts() {}

const mesonPostSwapTag = 11

func (*Meson) ID() types.AdaptorID { return types.AdaptorMeson }

func (m *Meson) Build(req *bridgeout.Request) (*bridgeout.Dispatch, error) {
	accounts, ok := req.Accounts.(*MesonAccounts)
	if !ok {
		return nil, bridgeerrors.ErrInvalidAccountsLength
	}
	if req.Args.SwapType != types.SwapTypeBridge {
		return nil, bridgeerrors.ErrMesonSwapTypeUnsupported
	}
	if len(req.Args.Data) < 52 {
		return nil, bridgeerrors.ErrAdaptorDataTooShort
	}

	var encoded [32]byte
	copy(encoded[:], req.Args.Data[:32])
	initiator := req.Args.Data[32:52]

	contractSigner, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("contract_signer")}, constants.MesonProgram)
	if err != nil {
		return nil, err
	}
	supportedTokens, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("supported_tokens")}, constants.MesonProgram)
	if err != nil {
		return nil, err
	}
	postedSwap, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("posted_swap"), encoded[:]}, constants.MesonProgram)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 1+32+20+8)
	data = append(data, mesonPostSwapTag)
	data = append(data, encoded[:]...)
	data = append(data, initiator...)
	data = append(data, 0, 0, 0, 0, 0, 0, 0, 1)

	inst := solana.NewInstruction(
		constants.MesonProgram,
		solana.AccountMetaSlice{
			solana.Meta(constants.SystemProgram),
			solana.Meta(constants.TokenProgram),
			solana.Meta(accounts.TokenAccount).WRITE(),
			solana.Meta(req.Mint).WRITE(),
			solana.Meta(contractSigner).WRITE(),
			solana.Meta(supportedTokens).WRITE(),
			solana.Meta(postedSwap).WRITE(),
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(req.UserTokenAccount).WRITE(),
		},
		data,
	)

	ext, err := json.Marshal(mesonExt{
		Encoded:   "0x" + hex.EncodeToString(encoded[:]),
		Initiator: "0x" + hex.EncodeToString(initiator),
	})
	if err != nil {
		return nil, err
	}
	return &bridgeout.Dispatch{
		Instructions: []solana.Instruction{inst},
		Ext:          string(ext),
	}, nil
}

type mesonExt struct {
	Encoded   string `json:"encoded"`
	Initiator string `json:"initiator"`
}

// MesonEncoded is the decoded view of Meson's packed 32-byte swap
// description.
type MesonEncoded struct {
	Version    uint8
	Amount     uint64
	SaltHeader string
	SaltData   string
	Fee        uint64
	ExpireTs   uint64
	OutChain   string
	OutToken   uint8
	InChain    string
	InToken    uint8
}

// DecodeMesonEncoded unpacks the fixed field layout of an encoded swap.
func DecodeMesonEncoded(b [32]byte) MesonEncoded {
	return MesonEncoded{
		Version:    b[0],
		Amount:     beUint(b[1:6]),
		SaltHeader: hex.EncodeToString(b[6:8]),
		SaltData:   hex.EncodeToString(b[8:16]),
		Fee:        beUint(b[16:21]),
		ExpireTs:   beUint(b[21:26]),
		OutChain:   hex.EncodeToString(b[26:28]),
		OutToken:   b[28],
		InChain:    hex.EncodeToString(b[29:31]),
		InToken:    b[31],
	}
}

// ChangeMesonAmount rewrites the 5-byte amount field of an encoded swap.
// Amounts that do not fit in 40 bits cannot be represented in the encoding.
func ChangeMesonAmount(b [32]byte, amount uint64) ([32]byte, error) {
	if amount >= 1<<40 {
		return b, bridgeerrors.ErrUnsafeConvert
	}
	for i := 0; i < 5; i++ {
		b[1+i] = byte(amount >> (8 * (4 - i)))
	}
	return b, nil
}

// beUint reads up to 8 big-endian bytes.
func beUint(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
