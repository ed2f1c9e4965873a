package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
)

const (
	// InMemoryDSN opens an ephemeral SQLite database, used by tests.
	InMemoryDSN = ":memory:"

	dbDirPermissions = 0o750
)

var (
	gormConfig = &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	schemaModels = []any{
		&ConfigRecord{},
		&MessageRecord{},
	}
)

// Store wraps a GORM client over the settlement state tables.
type Store struct {
	client *gorm.DB
}

// Open opens (or creates) a file-backed SQLite database at path, creating
// parent directories as needed, and migrates the schema.
func Open(path string) (*Store, error) {
	if strings.Contains(path, InMemoryDSN) {
		return openSQLite(path)
	}
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, dbDirPermissions); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory: %s", dir)
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "error checking directory")
	}
	// WAL keeps readers from blocking the single writer.
	return openSQLite(path + "?_journal_mode=WAL&_busy_timeout=5000")
}

// OpenInMemory opens a non-persistent store for tests.
func OpenInMemory() (*Store, error) {
	return openSQLite(InMemoryDSN)
}

func openSQLite(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SQLite database")
	}
	if err := db.AutoMigrate(schemaModels...); err != nil {
		return nil, errors.Wrap(err, "failed to auto-migrate database schema")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return &Store{client: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.client.DB()
	if err != nil {
		return errors.Wrap(err, "failed to retrieve native sql.DB")
	}
	return errors.Wrap(sqlDB.Close(), "failed to close database connection")
}

// Transaction runs fn atomically. All reads and writes inside fn see and
// produce a single consistent state change; any error rolls everything back.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.client.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{client: tx})
	})
}

// DeriveMessageAddress computes the deterministic storage address for one
// (src_chain_id, src_tx_hash) pair. Two messages collide here exactly when
// both fields match, which is what makes the IsUsed flag a replay guard.
func DeriveMessageAddress(srcChainID, srcTxHash [32]byte) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{constants.SeedToswapMessage, srcChainID[:], srcTxHash[:]},
		constants.Program,
	)
	if err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "failed to derive message address")
	}
	return addr, nil
}

// GetConfig loads the singleton config. Returns ErrNotInitialized when no
// config row exists yet.
func (s *Store) GetConfig() (*types.ContractConfig, error) {
	var rec ConfigRecord
	err := s.client.First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, bridgeerrors.ErrNotInitialized
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return configFromRecord(&rec)
}

// SaveConfig creates or updates the singleton config row.
func (s *Store) SaveConfig(cfg *types.ContractConfig) error {
	rec := ConfigRecord{
		Owner:        cfg.Owner.String(),
		PendingOwner: keyOrEmpty(cfg.PendingOwner),
		Paused:       cfg.Paused,
		Oracle:       append([]byte(nil), cfg.Oracle[:]...),
		MPC:          cfg.MPC.String(),
	}

	var existing ConfigRecord
	err := s.client.First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrap(s.client.Create(&rec).Error, "failed to create config")
	case err != nil:
		return errors.Wrap(err, "failed to load config")
	default:
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		return errors.Wrap(s.client.Save(&rec).Error, "failed to update config")
	}
}

// HasConfig reports whether the module has been initialized.
func (s *Store) HasConfig() (bool, error) {
	var count int64
	if err := s.client.Model(&ConfigRecord{}).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to count config rows")
	}
	return count > 0, nil
}

// GetMessage loads the state at address. A slot that has never been written
// comes back as the zero state, matching fresh storage.
func (s *Store) GetMessage(address solana.PublicKey) (*types.ToSwapMessageState, error) {
	var rec MessageRecord
	err := s.client.Where("address = ?", address.String()).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &types.ToSwapMessageState{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load message record")
	}
	return messageFromRecord(&rec)
}

// PutMessage writes the state at address, creating the row on first write.
func (s *Store) PutMessage(address solana.PublicKey, state *types.ToSwapMessageState) error {
	rec := MessageRecord{
		Address:          address.String(),
		IsUsed:           state.IsUsed,
		Authority:        state.Authority.String(),
		AuthorityProgram: state.AuthorityProgram.String(),
		Data:             append([]byte(nil), state.Data[:]...),
	}

	var existing MessageRecord
	err := s.client.Where("address = ?", rec.Address).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrap(s.client.Create(&rec).Error, "failed to create message record")
	case err != nil:
		return errors.Wrap(err, "failed to load message record")
	default:
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		return errors.Wrap(s.client.Save(&rec).Error, "failed to update message record")
	}
}

func configFromRecord(rec *ConfigRecord) (*types.ContractConfig, error) {
	cfg := &types.ContractConfig{Paused: rec.Paused}

	owner, err := solana.PublicKeyFromBase58(rec.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "invalid owner key in config record")
	}
	cfg.Owner = owner

	if rec.PendingOwner != "" {
		pending, err := solana.PublicKeyFromBase58(rec.PendingOwner)
		if err != nil {
			return nil, errors.Wrap(err, "invalid pending owner key in config record")
		}
		cfg.PendingOwner = pending
	}

	mpc, err := solana.PublicKeyFromBase58(rec.MPC)
	if err != nil {
		return nil, errors.Wrap(err, "invalid mpc key in config record")
	}
	cfg.MPC = mpc

	if len(rec.Oracle) != len(cfg.Oracle) {
		return nil, errors.Errorf("invalid oracle length in config record: %d", len(rec.Oracle))
	}
	copy(cfg.Oracle[:], rec.Oracle)
	return cfg, nil
}

func messageFromRecord(rec *MessageRecord) (*types.ToSwapMessageState, error) {
	state := &types.ToSwapMessageState{IsUsed: rec.IsUsed}

	authority, err := solana.PublicKeyFromBase58(rec.Authority)
	if err != nil {
		return nil, errors.Wrap(err, "invalid authority key in message record")
	}
	state.Authority = authority

	program, err := solana.PublicKeyFromBase58(rec.AuthorityProgram)
	if err != nil {
		return nil, errors.Wrap(err, "invalid authority program key in message record")
	}
	state.AuthorityProgram = program

	if len(rec.Data) != len(state.Data) {
		return nil, errors.Errorf("invalid message data length in record: %d", len(rec.Data))
	}
	copy(state.Data[:], rec.Data)
	return state, nil
}

func keyOrEmpty(key solana.PublicKey) string {
	if key.IsZero() {
		return ""
	}
	return key.String()
}
