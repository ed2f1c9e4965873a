package constants

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Chain tag reported as src_chain_id in outbound bridge logs.
const SolanaChainID uint16 = 501

// RPC client tuning.
const (
	DelayBetweenRPCCalls = 200             // delay in milliseconds between RPC calls
	RPCCallTimeout       = 2 * time.Second // timeout for a single RPC call
	MaxRPCRetries        = 10              // maximum number of retries for RPC calls
)

// Commission bounds, rate is expressed in parts per 10000.
const (
	CommissionRateLimit   uint16 = 300
	CommissionDenominator uint64 = 10000
)

// BridgeMessageSize is the fixed wire size of an oracle-attested inbound
// message: five consecutive 32-byte big-endian fields.
const BridgeMessageSize = 160

// Signature layout: r at [0,32), s at [32,64), v at byte 95.
const (
	SignatureMinLen = 96
	SignatureVIndex = 95
)

// PDA seeds.
var (
	SeedContractConfig  = []byte("contract_config")
	SeedToswapMessage   = []byte("toswap_message")
	SeedBridgeAuthority = []byte("xbridge_authority_pda")
	SeedCoreMessage     = []byte("bridged")
)

// DeployerKey is the only identity allowed to run initialize.
var DeployerKey = solana.MustPublicKeyFromBase58("Jk9fBdZBe83dsy5t8FWuk26LZhytWJCa7MXTqkiDEtF")

// Staging relayer identities accepted next to the configured MPC when the
// test-relayer allowance is enabled. Not honored in production profiles.
var (
	TestMPC  = solana.MustPublicKeyFromBase58("4JytEnivUZr9wVCsENs6dcWvzjYQF41RPkjQxwppo2j6")
	TestMPC2 = solana.MustPublicKeyFromBase58("5UYLAV5znKESoEoZT7orPGC5BmDtB5YsXwhFshhLqyeC")
)

// Program is the bridge program identity used for provenance records and as
// the namespace for derived storage addresses.
var Program = solana.MustPublicKeyFromBase58("okxBd18urPbBi2vsExxUDArzQNcju2DugV9Mt46BxYE")

// External programs invoked by claim and outbound dispatch.
var (
	DexRouterProgram = solana.MustPublicKeyFromBase58("6m2CDdhRgxpH4WjvdzxAYbGxwdGUz5MziiL5jek2kBma")
	WrappedSOL       = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	WormholeCoreProgram        = solana.MustPublicKeyFromBase58("worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth")
	WormholeTokenBridgeProgram = solana.MustPublicKeyFromBase58("wormDTUJ6AWPNvk59vGQbDvGJmqbDTdgWgAqcLBCgUb")

	MesonProgram = solana.MustPublicKeyFromBase58("FR1SDyLUj7PrMbtkUCkDrBymk5eWrRmr3UvWFb5Kjbmd")

	DebridgeDlnProgram = solana.MustPublicKeyFromBase58("src5qyZHqTqecJV4aY6Cb6zDZLMDzrDKKezs22MPHr4")

	CctpProgram        = solana.MustPublicKeyFromBase58("CCTPiPYPc6AsJuwueEnWgSgucamXDZwBd53dQ11YiKX3")
	CctpMessageProgram = solana.MustPublicKeyFromBase58("CCTPmbSD7gX1bxKPAmg77w8oFzNFpaQiQUWD43TKaecd")

	AllbridgeProgram         = solana.MustPublicKeyFromBase58("BrdgN2RPzEMWF96ZbnnJaUtQDQx7VRXYaHHbYCBvceWB")
	AllbridgeMessagerProgram = solana.MustPublicKeyFromBase58("AMsgYtqR3EXKfsz6Rj2cKnrYGwooaSk7BQGeyVBB5yjS")
	AllbridgeGasProgram      = solana.MustPublicKeyFromBase58("GasB9dNMfXGXysMeTjQnnAnN38RmbrphtH5dkkWnMMvQ")

	WanchainProgram           = solana.MustPublicKeyFromBase58("E3iKvJgGNycXrmsh2aryY25z29PpU4dvo4CBuXCKQiGB")
	WanchainSolVault          = solana.MustPublicKeyFromBase58("AKXdNCG4GcTQ1knC7kno9bggHuq8MG9CCb8yQd8Nx2vL")
	WanchainFeeReceiver       = solana.MustPublicKeyFromBase58("CXxYYAtiUhdUagJNQ6UAB9gmHdxeujUPdn4iRg9HeuSz")
	WanchainAdminBoardProgram = solana.MustPublicKeyFromBase58("7jYCM8k5Nvwg5vyPpLk2yjivQhexPDMXuK8CSbUKqL6B")
	WanchainConfigAccount     = solana.MustPublicKeyFromBase58("9o7zWu1n3q1MCAQp5y8RYmhhVjNpkfhpbSDMeYvjwhZP")
	WanchainCircleFeeProgram  = solana.MustPublicKeyFromBase58("dFYBRAFvZKq9F4mYGkLQu8DbfZRFrmi5dNSTDfwC3a8")

	MayanSwiftProgram      = solana.MustPublicKeyFromBase58("BLZRi6frs4X4DNLw56V4EXai1b6QVESN1BhHBTYM9VcY")
	MayanFeeManagerProgram = solana.MustPublicKeyFromBase58("5VtQHnhs2pfVEr68qQsbTRwKh4JV5GTu9mBHgHFxpHeQ")

	BridgersProgram   = solana.MustPublicKeyFromBase58("FDF8AxHB8UK7RS6xay6aBvwS3h7kez9gozqz14JyfKsg")
	BridgersDestOwner = solana.MustPublicKeyFromBase58("ZfctMHBkZNTqeYGE47ekxtydgXgpo9xKJCAasjaCLTU")
	BridgersVsInfo    = solana.MustPublicKeyFromBase58("2CtxEnat1bvq1KtKzZdze54aq9F8FhBECLqNPCNjVoFU")
)

// SPL runtime program identities, fixed across clusters.
var (
	TokenProgram           = solana.TokenProgramID
	Token2022Program       = solana.Token2022ProgramID
	AssociatedTokenProgram = solana.SPLAssociatedTokenAccountProgramID
	SystemProgram          = solana.SystemProgramID
	SysvarRent             = solana.SysVarRentPubkey
	SysvarClock            = solana.SysVarClockPubkey
)
