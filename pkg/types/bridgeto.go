package types

import (
	"encoding/json"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
)

// SwapType tells whether the outbound amount was produced by a local swap in
// the same transaction or is bridged directly from the user's balance.
type SwapType uint8

const (
	SwapTypeBridge        SwapType = 0 // BRIDGE: no prior on-chain swap
	SwapTypeSwapAndBridge SwapType = 1 // SWAPANDBRIDGE: local swap preceded the bridge
)

func (s SwapType) Valid() bool {
	return s == SwapTypeBridge || s == SwapTypeSwapAndBridge
}

func (s SwapType) String() string {
	switch s {
	case SwapTypeBridge:
		return "BRIDGE"
	case SwapTypeSwapAndBridge:
		return "SWAPANDBRIDGE"
	default:
		return "UNKNOWN"
	}
}

// AdaptorID selects the external bridge protocol. The numeric space is a
// closed enumeration with reserved slots for future adaptors; only the ids
// below dispatch, everything else fails closed.
type AdaptorID uint8

const (
	AdaptorBridgers    AdaptorID = 3
	AdaptorWanchain    AdaptorID = 17
	AdaptorCctp        AdaptorID = 18
	AdaptorWormhole    AdaptorID = 21
	AdaptorMeson       AdaptorID = 22
	AdaptorDebridgeDln AdaptorID = 34
	AdaptorAllbridge   AdaptorID = 41
	AdaptorMayanSwift  AdaptorID = 47
)

func (a AdaptorID) String() string {
	switch a {
	case AdaptorBridgers:
		return "bridgers"
	case AdaptorWanchain:
		return "wanchain"
	case AdaptorCctp:
		return "cctp"
	case AdaptorWormhole:
		return "wormhole"
	case AdaptorMeson:
		return "meson"
	case AdaptorDebridgeDln:
		return "debridgedln"
	case AdaptorAllbridge:
		return "allbridge"
	case AdaptorMayanSwift:
		return "mayan_swift"
	default:
		return "reserved"
	}
}

// BridgeToArgs is the common argument set for one outbound dispatch.
type BridgeToArgs struct {
	AdaptorID AdaptorID
	To        []byte // recipient on the target chain
	OrderID   uint64
	ToChainID uint64
	Amount    uint64
	SwapType  SwapType
	Data      []byte // adaptor-specific payload, Borsh or fixed layout
	ExtData   []byte // extension payload carrying the destination user address
}

// BridgeToCommissionArgs adds the commission rate (parts per 10000) to a
// dispatch that pays a fee before bridging.
type BridgeToCommissionArgs struct {
	BridgeToArgs
	CommissionRate uint16
}

// BridgeResult carries the adaptor-supplied free-form extension string that
// ends up in the emitted log record.
type BridgeResult struct {
	Ext string
}

type extData struct {
	UserAddress []byte
}

// DecodeUserAddress extracts the destination user address from the Borsh
// extension payload. The address must be valid UTF-8; it is logged verbatim.
func DecodeUserAddress(ext []byte) (string, error) {
	var d extData
	if err := bin.NewBorshDecoder(ext).Decode(&d); err != nil {
		return "", bridgeerrors.ErrInvalidUserAddress
	}
	if !utf8.Valid(d.UserAddress) {
		return "", bridgeerrors.ErrInvalidUserAddress
	}
	return string(d.UserAddress), nil
}

// EncodeExtData builds the Borsh extension payload for a user address.
func EncodeExtData(userAddress string) []byte {
	out, _ := bin.MarshalBorsh(&extData{UserAddress: []byte(userAddress)})
	return out
}

// LogBridgeToVersion1 is the structured outbound settlement record, emitted
// both as a queryable event and as a serialized audit line.
type LogBridgeToVersion1 struct {
	OrderID     string `json:"order_id"`
	AdaptorID   uint8  `json:"adaptor_id"`
	To          string `json:"to"`
	Amount      uint64 `json:"amount"`
	SwapType    uint8  `json:"swap_type"`
	ToChainID   uint64 `json:"to_chain_id"`
	BridgeToken string `json:"bridge_token"`
	SrcChainID  uint16 `json:"src_chain_id"`
	From        string `json:"from"`
	UserAddress string `json:"user_address"`
	Ext         string `json:"ext"`
}

// JSON renders the record for the line-oriented audit log.
func (l LogBridgeToVersion1) JSON() string {
	b, _ := json.Marshal(l)
	return string(b)
}

// RelayerFee records a fee deducted by an adaptor pre-step (CCTP redeem fee).
type RelayerFee struct {
	Amount uint64 `json:"amount"`
	Mint   string `json:"mint"`
	To     string `json:"to"`
}

// JSON renders the record for the audit log.
func (r RelayerFee) JSON() string {
	b, _ := json.Marshal(r)
	return string(b)
}
