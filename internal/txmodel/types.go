// Package txmodel defines the decoded transaction shape handed to the
// extractor by the upstream sources (the live bus subscriber and the
// archive block processor). Decoding the raw protocol wire format into
// these types is the job of the upstream transaction-parser library,
// treated as an external collaborator; this package only names the
// resulting in-memory shape.
package txmodel

// PubKey is a 32-byte Solana account key.
type PubKey [32]byte

// Signature is a 64-byte transaction signature.
type Signature [64]byte

// Transaction is one parsed, ordered instruction stream.
type Transaction struct {
	Signature        Signature
	Slot             uint64
	TransactionIndex uint32
	Timestamp        uint32 // seconds since epoch, protocol-native width
	Instructions     []Instruction
}

// Instruction is either an action (the on-chain call) or an event (the log
// record it emits). Tag identifies which of the recognized variants the
// Payload holds; unrecognized instructions carry a nil Payload and are
// still pushed onto the pending-action register by the extractor.
type Instruction struct {
	Tag      string
	Accounts []PubKey
	Payload  any
}

// Recognized event tags, exact strings required for bit-for-bit matching
// against the upstream parser's instruction tagging.
const (
	TagTradeEvent          = "PumpFunTradeEvent"
	TagCreateEvent         = "PumpFunCreateEvent"
	TagMigrateEvent        = "PumpFunMigrateEvent"
	TagAmmBuyEvent         = "PumpFunAmmBuyEvent"
	TagAmmSellEvent        = "PumpFunAmmSellEvent"
	TagAmmDepositEvent     = "PumpFunAmmDepositEvent"
	TagAmmWithdrawEvent   = "PumpFunAmmWithdrawEvent"
	TagAmmCreatePoolEvent = "PumpFunAmmCreatePoolEvent"
)

// IsEventTag reports whether tag is one of the eight recognized event
// instruction tags.
func IsEventTag(tag string) bool {
	switch tag {
	case TagTradeEvent, TagCreateEvent, TagMigrateEvent, TagAmmBuyEvent,
		TagAmmSellEvent, TagAmmDepositEvent, TagAmmWithdrawEvent, TagAmmCreatePoolEvent:
		return true
	default:
		return false
	}
}

// Action payload variants: the on-chain calls that immediately precede a
// matching event instruction.

type PumpFunBuy struct {
	Amount             uint64
	MaxSolCost         uint64
	Mint               PubKey
	User               PubKey
	FeeRecipient       PubKey
	Creator            PubKey
}

type PumpFunSell struct {
	Amount          uint64
	MinSolOutput    uint64
	Mint            PubKey
	User            PubKey
	FeeRecipient    PubKey
	Creator         PubKey
}

type PumpFunCreate struct {
	Name         string
	Symbol       string
	URI          string
	Mint         PubKey
	BondingCurve PubKey
	Creator      PubKey
	User         PubKey
}

type PumpFunMigrate struct {
	Mint         PubKey
	BondingCurve PubKey
	Pool         PubKey
	User         PubKey
}

type PumpFunAmmBuy struct {
	BaseAmountOut PubKeyAmount
	Pool          PubKey
	User          PubKey
}

type PumpFunAmmSell struct {
	BaseAmountIn PubKeyAmount
	Pool         PubKey
	User         PubKey
}

type PumpFunAmmCreatePool struct {
	Pool     PubKey
	BaseMint PubKey
	QuoteMint PubKey
	Creator  PubKey
	LpMint   PubKey
}

type PumpFunAmmDeposit struct {
	Pool PubKey
	User PubKey
}

type PumpFunAmmWithdraw struct {
	Pool PubKey
	User PubKey
}

// PubKeyAmount names the amount field of the AMM action payloads. It is an
// alias of uint64, not a distinct type.
type PubKeyAmount = uint64

// Event payload variants: the log records emitted by the matching action.

type TradeEvent struct {
	Mint                  PubKey
	SolAmount             uint64
	TokenAmount           uint64
	IsBuy                 bool
	User                  PubKey
	VirtualSolReserves    uint64
	VirtualTokenReserves  uint64
	RealSolReserves       uint64
	RealTokenReserves     uint64
	FeeRecipient          PubKey
	FeeBasisPoints        uint64
	Creator               PubKey
	CreatorFeeBasisPoints uint64
}

type CreateEvent struct {
	Mint         PubKey
	Name         string
	Symbol       string
	URI          string
	BondingCurve PubKey
	Creator      PubKey
	User         PubKey
}

type MigrateEvent struct {
	Mint             PubKey
	MintAmount       uint64
	SolAmount        uint64
	PoolMigrationFee uint64
	BondingCurve     PubKey
	Pool             PubKey
	User             PubKey
}

type AmmBuyEvent struct {
	Pool                   PubKey
	BaseMint               PubKey
	QuoteMint              PubKey
	User                   PubKey
	BaseAmountOut          uint64
	QuoteAmountIn          uint64
	LpFeeBasisPoints       uint64
	ProtocolFeeBasisPoints uint64
	PoolBaseTokenReserves  uint64
	PoolQuoteTokenReserves uint64
}

type AmmSellEvent struct {
	Pool                   PubKey
	BaseMint               PubKey
	QuoteMint              PubKey
	User                   PubKey
	BaseAmountIn           uint64
	QuoteAmountOut         uint64
	LpFeeBasisPoints       uint64
	ProtocolFeeBasisPoints uint64
	PoolBaseTokenReserves  uint64
	PoolQuoteTokenReserves uint64
}

type AmmCreatePoolEvent struct {
	Pool           PubKey
	BaseMint       PubKey
	QuoteMint      PubKey
	Creator        PubKey
	BaseAmount     uint64
	QuoteAmount    uint64
	LpMint         PubKey
	LpMintDecimals uint8
}

type AmmDepositEvent struct {
	Pool                   PubKey
	User                   PubKey
	BaseAmount             uint64
	QuoteAmount            uint64
	LpMintAmount           uint64
	PoolBaseTokenReserves  uint64
	PoolQuoteTokenReserves uint64
}

type AmmWithdrawEvent struct {
	Pool                   PubKey
	User                   PubKey
	BaseAmountOut          uint64
	QuoteAmountOut         uint64
	LpMintAmount           uint64
	PoolBaseTokenReserves  uint64
	PoolQuoteTokenReserves uint64
}
