package types

import (
	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/constants"
)

// ToSwapMessageState is the deduplicated record for one (src_chain_id,
// src_tx_hash) pair. It is the single source of truth gating fund release:
// IsUsed transitions to true exactly once, on a successful claim or refund,
// and the record is immutable afterwards.
type ToSwapMessageState struct {
	IsUsed           bool
	Authority        solana.PublicKey
	AuthorityProgram solana.PublicKey
	Data             [constants.BridgeMessageSize]byte
}

// IsZero reports whether the record has never been written. A freshly derived
// storage slot is all-zero until the first verify.
func (s *ToSwapMessageState) IsZero() bool {
	if s.IsUsed || !s.Authority.IsZero() || !s.AuthorityProgram.IsZero() {
		return false
	}
	for _, b := range s.Data {
		if b != 0 {
			return false
		}
	}
	return true
}

// Message decodes the stored bytes.
func (s *ToSwapMessageState) Message() (*BridgeMessage, error) {
	return DecodeBridgeMessage(s.Data[:])
}

// ContractConfig is the singleton gating record: ownership, pause flag and
// the two authorized external identities.
type ContractConfig struct {
	Owner        solana.PublicKey
	PendingOwner solana.PublicKey
	Paused       bool
	Oracle       [20]byte
	MPC          solana.PublicKey
}
