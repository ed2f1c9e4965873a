// Package store contains the GORM-backed SQLite models and accessors for the
// settlement state: the singleton contract config and one record per verified
// inbound message, keyed by its derived program address.
package store

import (
	"gorm.io/gorm"
)

// ConfigRecord is the persisted form of the contract config. Exactly one row
// exists once the module has been initialized.
type ConfigRecord struct {
	gorm.Model
	Owner        string // base58 owner key
	PendingOwner string // base58, empty when no transfer is in flight
	Paused       bool
	Oracle       []byte `gorm:"type:blob"` // 20-byte EVM oracle address
	MPC          string // base58 MPC relayer key
}

// MessageRecord is the persisted form of a ToSwapMessageState.
type MessageRecord struct {
	gorm.Model
	Address          string `gorm:"uniqueIndex;not null"` // base58 derived message address
	IsUsed           bool
	Authority        string // base58 verifier authority
	AuthorityProgram string // base58 program of the verifier authority
	Data             []byte `gorm:"type:blob"` // raw 160-byte message
}
