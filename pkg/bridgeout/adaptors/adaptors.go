// Package adaptors contains the protocol codecs behind the outbound router.
// Each adaptor turns one dispatch request into the exact instruction
// sequence of its bridge program: discriminator, argument layout and account
// order all follow the deployed programs.
package adaptors

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// RegisterAll installs every supported protocol adaptor.
func RegisterAll(reg *bridgeout.Registry) {
	reg.Register(&Wormhole{})
	reg.Register(&Cctp{})
	reg.Register(&Allbridge{})
	reg.Register(&Meson{})
	reg.Register(&Wanchain{})
	reg.Register(&Bridgers{})
	reg.Register(&DebridgeDln{})
	reg.Register(&MayanSwift{})
}

// decodeBorsh decodes adaptor payloads, normalizing decode failures to the
// shared deserialization error.
func decodeBorsh(data []byte, v interface{}) error {
	if err := bin.NewBorshDecoder(data).Decode(v); err != nil {
		return bridgeerrors.ErrDeserializationError
	}
	return nil
}

// lengthPrefixed renders b as a u32 little-endian length followed by the
// bytes, the layout shared by several bridge programs for variable fields.
func lengthPrefixed(b []byte) []byte {
	out := make([]byte, 0, 4+len(b))
	out = append(out, utils.U32LE(uint32(len(b)))...)
	out = append(out, b...)
	return out
}

// fixed32 left-aligns b into a 32-byte field. Inputs longer than the field
// are rejected rather than truncated.
func fixed32(b []byte) ([32]byte, error) {
	var out [32]byte
	if len(b) > 32 {
		return out, bridgeerrors.ErrUnsafeConvert
	}
	copy(out[:], b)
	return out, nil
}

// createATAIdempotent builds the associated-token-account create instruction
// in its idempotent form and returns the derived account.
func createATAIdempotent(payer, owner, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, err := utils.AssociatedTokenAccount(owner, mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	inst := solana.NewInstruction(
		constants.AssociatedTokenProgram,
		solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(ata).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(constants.SystemProgram),
			solana.Meta(constants.TokenProgram),
		},
		[]byte{1},
	)
	return inst, ata, nil
}
