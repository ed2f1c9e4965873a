package types

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/constants"
)

// BridgeMessage is the oracle-attested description of an inbound transfer.
// Wire format is exactly 160 bytes: five consecutive 32-byte big-endian
// fields. Amount and chain id carry their significant bytes at the low end of
// their field.
type BridgeMessage struct {
	SrcChainID [32]byte
	SrcTxHash  [32]byte
	To         [32]byte
	FromToken  [32]byte
	FromAmount [32]byte
}

// DecodeBridgeMessage parses the fixed-layout wire form. Short input fails
// with a deserialization error; trailing bytes beyond 160 are rejected by the
// callers that enforce the storage bound.
func DecodeBridgeMessage(raw []byte) (*BridgeMessage, error) {
	if len(raw) < constants.BridgeMessageSize {
		return nil, bridgeerrors.ErrDeserializationError
	}
	var m BridgeMessage
	copy(m.SrcChainID[:], raw[0:32])
	copy(m.SrcTxHash[:], raw[32:64])
	copy(m.To[:], raw[64:96])
	copy(m.FromToken[:], raw[96:128])
	copy(m.FromAmount[:], raw[128:160])
	return &m, nil
}

// Encode renders the 160-byte wire form.
func (m *BridgeMessage) Encode() []byte {
	out := make([]byte, 0, constants.BridgeMessageSize)
	out = append(out, m.SrcChainID[:]...)
	out = append(out, m.SrcTxHash[:]...)
	out = append(out, m.To[:]...)
	out = append(out, m.FromToken[:]...)
	out = append(out, m.FromAmount[:]...)
	return out
}

// ChainID returns the source chain id. The significant range is the low
// 16 bytes of the field, wider than uint64, so it is exposed as a big.Int.
func (m *BridgeMessage) ChainID() *big.Int {
	return new(big.Int).SetBytes(m.SrcChainID[16:32])
}

// Amount returns the transferred amount from the low 8 bytes of the field.
func (m *BridgeMessage) Amount() uint64 {
	return binary.BigEndian.Uint64(m.FromAmount[24:32])
}

// ToAddress returns the recipient as a Solana public key.
func (m *BridgeMessage) ToAddress() solana.PublicKey {
	return solana.PublicKeyFromBytes(m.To[:])
}

// FromTokenAddress returns the source token mint as a Solana public key.
func (m *BridgeMessage) FromTokenAddress() solana.PublicKey {
	return solana.PublicKeyFromBytes(m.FromToken[:])
}

// OracleDataLog is the decoded-message audit record attached to verify,
// claim and refund processing.
type OracleDataLog struct {
	SrcChainID string `json:"src_chain_id"`
	SrcTxHash  string `json:"src_tx_hash"`
	To         string `json:"to"`
	FromToken  string `json:"from_token"`
	FromAmount uint64 `json:"from_amount"`
	OrderID    string `json:"orderid"`
}

// OracleLog builds the audit record for this message under the given order id.
func (m *BridgeMessage) OracleLog(orderID *big.Int) OracleDataLog {
	return OracleDataLog{
		SrcChainID: m.ChainID().String(),
		SrcTxHash:  hex.EncodeToString(m.SrcTxHash[:]),
		To:         m.ToAddress().String(),
		FromToken:  m.FromTokenAddress().String(),
		FromAmount: m.Amount(),
		OrderID:    orderID.String(),
	}
}

// JSON renders the record for line-oriented audit output.
func (l OracleDataLog) JSON() string {
	b, _ := json.Marshal(l)
	return string(b)
}
