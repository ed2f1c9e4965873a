// Package sigverify recovers the signer of an oracle-attested message from an
// Ethereum-style personal-message signature and checks it against the
// configured oracle address. Pure validation, no state.
package sigverify

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/constants"
)

var personalPrefix = []byte("\x19Ethereum Signed Message:\n32")

// PrefixedHash computes keccak256 of the personal-message envelope around
// keccak256(message).
func PrefixedHash(message []byte) []byte {
	inner := crypto.Keccak256(message)
	return crypto.Keccak256(personalPrefix, inner)
}

// RecoverAddress recovers the 20-byte signer address from the signature over
// the prefixed message hash.
//
// Signature layout follows the relayer wire format: r at [0,32), s at
// [32,64), v at byte 95 (27/28 or 0/1). Signatures with s in the upper half
// of the curve order are rejected outright; accepting both halves would let a
// third party malleate a seen signature into a second valid one.
func RecoverAddress(message, signature []byte) ([20]byte, error) {
	var addr [20]byte
	if len(signature) < constants.SignatureMinLen {
		return addr, bridgeerrors.ErrInvalidSignature
	}

	r := new(big.Int).SetBytes(signature[0:32])
	s := new(big.Int).SetBytes(signature[32:64])
	v := signature[constants.SignatureVIndex]
	if v >= 27 {
		v -= 27
	}
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return addr, bridgeerrors.ErrInvalidSignature
	}

	sig := make([]byte, 65)
	copy(sig[0:64], signature[0:64])
	sig[64] = v

	pubkey, err := crypto.Ecrecover(PrefixedHash(message), sig)
	if err != nil {
		return addr, bridgeerrors.ErrInvalidSignature
	}

	// Uncompressed public key; the address is the low 20 bytes of its hash.
	hash := crypto.Keccak256(pubkey[1:])
	copy(addr[:], hash[12:])
	return addr, nil
}

// VerifyOracle recovers the signer and requires it to be the configured
// oracle.
func VerifyOracle(message, signature []byte, oracle [20]byte) error {
	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}
	if !bytes.Equal(recovered[:], oracle[:]) {
		return bridgeerrors.ErrNotOracleProxy
	}
	return nil
}
