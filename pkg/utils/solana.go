// Package utils holds small helpers shared across the bridge packages:
// associated token account derivation for both SPL token programs, checked
// integer conversion and EVM-style address formatting.
package utils

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/constants"
)

// AssociatedTokenAccount derives the classic SPL token ATA for wallet/mint.
func AssociatedTokenAccount(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	return addr, err
}

// AssociatedTokenAccount2022 derives the ATA for a token-2022 mint. Same
// derivation as the classic one but with the token-2022 program as the middle
// seed.
func AssociatedTokenAccount2022(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{wallet[:], constants.Token2022Program[:], mint[:]},
		constants.AssociatedTokenProgram,
	)
	return addr, err
}

// IsAssociatedTokenAccount reports whether candidate is the ATA of
// wallet/mint under either token program.
func IsAssociatedTokenAccount(candidate, wallet, mint solana.PublicKey) (bool, error) {
	classic, err := AssociatedTokenAccount(wallet, mint)
	if err != nil {
		return false, err
	}
	if candidate.Equals(classic) {
		return true, nil
	}
	t22, err := AssociatedTokenAccount2022(wallet, mint)
	if err != nil {
		return false, err
	}
	return candidate.Equals(t22), nil
}

// CheckedAddU64 adds with overflow detection.
func CheckedAddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, bridgeerrors.ErrCalculationError
	}
	return sum, nil
}

// CheckedMulU64 multiplies with overflow detection.
func CheckedMulU64(a, b uint64) (uint64, error) {
	if a != 0 && b != 0 && a > ^uint64(0)/b {
		return 0, bridgeerrors.ErrCalculationError
	}
	return a * b, nil
}

// ClaimCeiling is the largest total a relayer may draw against a bridged
// amount: amount plus a 10% operational margin, truncated.
func ClaimCeiling(amount uint64) (uint64, error) {
	scaled, err := CheckedMulU64(amount, 11)
	if err != nil {
		return 0, err
	}
	return scaled / 10, nil
}

// EvmAddressHex renders the low 20 bytes of a 32-byte field as an 0x-prefixed
// hex string.
func EvmAddressHex(field [32]byte) string {
	return "0x" + hex.EncodeToString(field[12:32])
}

// EvmAddressHexUpper renders like EvmAddressHex but with uppercase hex digits
// after the prefix.
func EvmAddressHexUpper(field [32]byte) string {
	return "0x" + strings.ToUpper(hex.EncodeToString(field[12:32]))
}

// U64LE renders v as 8 little-endian bytes.
func U64LE(v uint64) []byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], v)
	return out[:]
}

// U32LE renders v as 4 little-endian bytes.
func U32LE(v uint32) []byte {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], v)
	return out[:]
}
