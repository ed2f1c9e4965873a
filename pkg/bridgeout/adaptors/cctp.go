package adaptors

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/sigweihq/xbridge/pkg/bridgeerrors"
	"github.com/sigweihq/xbridge/pkg/bridgeout"
	"github.com/sigweihq/xbridge/pkg/constants"
	"github.com/sigweihq/xbridge/pkg/types"
	"github.com/sigweihq/xbridge/pkg/utils"
)

// Cctp burns through Circle's token messenger (depositForBurn) for USDC
// routes, with an optional relayer fee carved out of the bridged amount.
type Cctp struct{}

// CctpAccounts carries the accounts that cannot be derived: the fresh
// keypair account that records the MessageSent event, and the relayer's fee
// token account when a redeem fee applies.
type CctpAccounts struct {
	MessageSentEventData solana.PublicKey
	// FeeTokenAccount receives the redeem fee; ignored when the payload
	// carries no fee.
	FeeTokenAccount solana.PublicKey
}

func (CctpAccounts) IsAdaptorAccounts() {}

// global:deposit_for_burn
var cctpDepositForBurnTag = []byte{215, 60, 61, 46, 114, 55, 128, 176}

type cctpRedeemFee struct {
	Amount uint64
}

func (*Cctp) ID() types.AdaptorID { return types.AdaptorCctp }

func (c *Cctp) Build(req *bridgeout.Request) (*bridgeout.Dispatch, error) {
	accounts, ok := req.Accounts.(*CctpAccounts)
	if !ok {
		return nil, bridgeerrors.ErrInvalidAccountsLength
	}

	amount := req.Args.Amount
	var instructions []solana.Instruction
	var fee *types.RelayerFee

	// Older senders carry no fee payload at all; an exact 8-byte payload is
	// the redeem fee.
	var redeemFee cctpRedeemFee
	if len(req.Args.Data) == 8 && decodeBorsh(req.Args.Data, &redeemFee) == nil {
		if redeemFee.Amount > amount {
			return nil, bridgeerrors.ErrCalculationError
		}
		instructions = append(instructions, token.NewTransferInstruction(
			redeemFee.Amount, req.UserTokenAccount, accounts.FeeTokenAccount, req.Payer, nil,
		).Build())
		amount -= redeemFee.Amount
		fee = &types.RelayerFee{
			Amount: redeemFee.Amount,
			Mint:   req.Mint.String(),
			To:     accounts.FeeTokenAccount.String(),
		}
	}

	domain := uint32(req.Args.ToChainID)
	senderAuthority, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("sender_authority")}, constants.CctpProgram)
	if err != nil {
		return nil, err
	}
	messageTransmitter, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("message_transmitter")}, constants.CctpMessageProgram)
	if err != nil {
		return nil, err
	}
	tokenMessenger, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("token_messenger")}, constants.CctpProgram)
	if err != nil {
		return nil, err
	}
	remoteTokenMessenger, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("remote_token_messenger"), []byte(strconv.FormatUint(uint64(domain), 10))},
		constants.CctpProgram)
	if err != nil {
		return nil, err
	}
	tokenMinter, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("token_minter")}, constants.CctpProgram)
	if err != nil {
		return nil, err
	}
	localToken, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("local_token"), req.Mint[:]}, constants.CctpProgram)
	if err != nil {
		return nil, err
	}
	eventAuthority, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("__event_authority")}, constants.CctpProgram)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 8+8+4+len(req.Args.To))
	data = append(data, cctpDepositForBurnTag...)
	data = append(data, utils.U64LE(amount)...)
	data = append(data, utils.U32LE(domain)...)
	data = append(data, req.Args.To...)

	instructions = append(instructions, solana.NewInstruction(
		constants.CctpProgram,
		solana.AccountMetaSlice{
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(req.Payer).WRITE().SIGNER(),
			solana.Meta(senderAuthority),
			solana.Meta(req.UserTokenAccount).WRITE(),
			solana.Meta(messageTransmitter).WRITE(),
			solana.Meta(tokenMessenger),
			solana.Meta(remoteTokenMessenger),
			solana.Meta(tokenMinter),
			solana.Meta(localToken).WRITE(),
			solana.Meta(req.Mint).WRITE(),
			solana.Meta(accounts.MessageSentEventData).WRITE().SIGNER(),
			solana.Meta(constants.CctpMessageProgram),
			solana.Meta(constants.CctpProgram),
			solana.Meta(constants.TokenProgram),
			solana.Meta(constants.SystemProgram),
			solana.Meta(eventAuthority),
			solana.Meta(constants.CctpProgram),
		},
		data,
	))

	return &bridgeout.Dispatch{Instructions: instructions, Fee: fee}, nil
}
