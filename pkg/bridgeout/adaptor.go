// Package bridgeout implements the outbound side of the settlement module:
// a registry of bridge protocol adaptors, a router that dispatches through
// them with balance-delta verification, and the commission entry points.
package bridgeout

import (
	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/types"
)

// Accounts is the marker for adaptor-specific account structs. Each adaptor
// declares its own named struct and rejects anything else, so a caller can
// never smuggle a mislabeled account list into the wrong protocol.
type Accounts interface {
	IsAdaptorAccounts()
}

// Request is one outbound dispatch handed to an adaptor.
type Request struct {
	Payer            solana.PublicKey
	Mint             solana.PublicKey
	UserTokenAccount solana.PublicKey

	Args *types.BridgeToArgs

	// Accounts holds the adaptor's named account struct.
	Accounts Accounts
}

// Dispatch is the adaptor's output: the instructions to execute in order
// (pre-steps first, bridge call last), the ext payload for the settlement
// log, and an optional relayer fee the adaptor deducted up front.
type Dispatch struct {
	Instructions []solana.Instruction
	Ext          string

	// Fee describes a relayer fee the adaptor carved out of the bridged
	// amount, for the audit log.
	Fee *types.RelayerFee
}

// Adaptor builds the protocol-specific instruction sequence for one
// outbound transfer.
type Adaptor interface {
	// ID returns the adaptor's slot in the closed id space.
	ID() types.AdaptorID

	// Build validates the request's accounts and payload and produces the
	// dispatch. Build must not mutate the request.
	Build(req *Request) (*Dispatch, error)
}
