// Package runtime defines the narrow interfaces the settlement engine uses to
// touch the outside world: token and lamport movement, dex execution and raw
// instruction dispatch. Engines accept these interfaces; production wires an
// RPC-backed implementation, tests use the in-memory one.
package runtime

import (
	"github.com/gagliardetto/solana-go"
)

// TokenAccountInfo is a point-in-time snapshot of an SPL token account.
type TokenAccountInfo struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// BalanceReader reads token and native balances.
type BalanceReader interface {
	TokenBalance(account solana.PublicKey) (uint64, error)
	LamportBalance(account solana.PublicKey) (uint64, error)
}

// AccountInspector resolves a token account to its snapshot.
type AccountInspector interface {
	TokenAccount(account solana.PublicKey) (*TokenAccountInfo, error)
}

// TokenTransferrer moves SPL tokens between token accounts under the bridge
// authority.
type TokenTransferrer interface {
	TransferToken(from, to solana.PublicKey, amount uint64) error
}

// NativeTransferrer moves lamports.
type NativeTransferrer interface {
	TransferLamports(from, to solana.PublicKey, amount uint64) error
}

// DexSwapper executes an opaque routed swap. The instruction bytes and
// account list come from the relayer and are not interpreted here; callers
// verify the effect through balance deltas, never by trusting the data.
type DexSwapper interface {
	Swap(data []byte, accounts []*solana.AccountMeta) error
}

// Invoker dispatches a fully built instruction to its target program.
type Invoker interface {
	Invoke(inst solana.Instruction) error
}
