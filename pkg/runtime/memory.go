package runtime

import (
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// Memory is an in-memory runtime used by tests. Token accounts and lamport
// balances live in maps; swap and invoke effects are supplied by hooks so a
// test can simulate whatever the external program would have done.
type Memory struct {
	mu       sync.Mutex
	tokens   map[solana.PublicKey]*TokenAccountInfo
	lamports map[solana.PublicKey]uint64

	// SwapFunc runs in place of the dex program. Nil means swaps are no-ops.
	SwapFunc func(data []byte, accounts []*solana.AccountMeta) error
	// InvokeFunc runs in place of the target program. Nil means dispatch only
	// records the instruction.
	InvokeFunc func(inst solana.Instruction) error

	// Invoked collects every dispatched instruction in order.
	Invoked []solana.Instruction
}

// NewMemory returns an empty in-memory runtime.
func NewMemory() *Memory {
	return &Memory{
		tokens:   make(map[solana.PublicKey]*TokenAccountInfo),
		lamports: make(map[solana.PublicKey]uint64),
	}
}

// SetTokenAccount seeds or replaces a token account.
func (m *Memory) SetTokenAccount(account, mint, owner solana.PublicKey, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[account] = &TokenAccountInfo{Mint: mint, Owner: owner, Amount: amount}
}

// SetLamports seeds a native balance.
func (m *Memory) SetLamports(account solana.PublicKey, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lamports[account] = amount
}

// AdjustTokenBalance adds delta to an existing token account. Negative deltas
// subtract; tests use this from swap hooks.
func (m *Memory) AdjustTokenBalance(account solana.PublicKey, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.tokens[account]
	if !ok {
		return errors.Errorf("unknown token account: %s", account)
	}
	if delta < 0 && info.Amount < uint64(-delta) {
		return errors.Errorf("insufficient token balance in %s", account)
	}
	info.Amount = uint64(int64(info.Amount) + delta)
	return nil
}

func (m *Memory) TokenBalance(account solana.PublicKey) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.tokens[account]
	if !ok {
		return 0, errors.Errorf("unknown token account: %s", account)
	}
	return info.Amount, nil
}

func (m *Memory) LamportBalance(account solana.PublicKey) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lamports[account], nil
}

func (m *Memory) TokenAccount(account solana.PublicKey) (*TokenAccountInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.tokens[account]
	if !ok {
		return nil, errors.Errorf("unknown token account: %s", account)
	}
	copied := *info
	return &copied, nil
}

func (m *Memory) TransferToken(from, to solana.PublicKey, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.tokens[from]
	if !ok {
		return errors.Errorf("unknown token account: %s", from)
	}
	dst, ok := m.tokens[to]
	if !ok {
		return errors.Errorf("unknown token account: %s", to)
	}
	if src.Amount < amount {
		return errors.Errorf("insufficient token balance in %s", from)
	}
	src.Amount -= amount
	dst.Amount += amount
	return nil
}

func (m *Memory) TransferLamports(from, to solana.PublicKey, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lamports[from] < amount {
		return errors.Errorf("insufficient lamports in %s", from)
	}
	m.lamports[from] -= amount
	m.lamports[to] += amount
	return nil
}

func (m *Memory) Swap(data []byte, accounts []*solana.AccountMeta) error {
	if m.SwapFunc != nil {
		return m.SwapFunc(data, accounts)
	}
	return nil
}

func (m *Memory) Invoke(inst solana.Instruction) error {
	m.mu.Lock()
	m.Invoked = append(m.Invoked, inst)
	m.mu.Unlock()
	if m.InvokeFunc != nil {
		return m.InvokeFunc(inst)
	}
	return nil
}
