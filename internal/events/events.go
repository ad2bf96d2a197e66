// Package events defines the eight flat, fixed-schema event rows produced
// by the extractor. Field names, order, and types are a wire contract with
// the `pumpfun_*_event_v2` analytical-store tables and with the Parquet
// export format; they must not change independently of those consumers.
package events

import (
	"fmt"
	"reflect"

	"github.com/mr-tron/base58"
)

// Key is the composite identity shared by every event row: it is globally
// unique across a well-formed stream.
type Key struct {
	Signature        string `ch:"signature"`
	Slot             uint64 `ch:"slot"`
	TransactionIndex uint32 `ch:"transaction_index"`
	InstructionIndex uint32 `ch:"instruction_index"`
	Timestamp        uint32 `ch:"timestamp"`
}

// EncodeKey32 base58-encodes a 32-byte account key.
func EncodeKey32(b [32]byte) string { return base58.Encode(b[:]) }

// EncodeKey64 base58-encodes a 64-byte signature.
func EncodeKey64(b [64]byte) string { return base58.Encode(b[:]) }

// Bool01 converts a bool into the protocol's 0/1 unsigned-byte convention.
func Bool01(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// TradeEventRow is the `pumpfun_trade_event_v2` schema.
type TradeEventRow struct {
	Key
	Mint                  string `ch:"mint"`
	SolAmount             uint64 `ch:"sol_amount"`
	TokenAmount           uint64 `ch:"token_amount"`
	IsBuy                 uint8  `ch:"is_buy"`
	User                  string `ch:"user"`
	VirtualSolReserves    uint64 `ch:"virtual_sol_reserves"`
	VirtualTokenReserves  uint64 `ch:"virtual_token_reserves"`
	RealSolReserves       uint64 `ch:"real_sol_reserves"`
	RealTokenReserves     uint64 `ch:"real_token_reserves"`
	FeeRecipient          string `ch:"fee_recipient"`
	FeeBasisPoints        uint64 `ch:"fee_basis_points"`
	Creator               string `ch:"creator"`
	CreatorFeeBasisPoints uint64 `ch:"creator_fee_basis_points"`
}

// CreateEventRow is the `pumpfun_create_event_v2` schema.
type CreateEventRow struct {
	Key
	Mint         string `ch:"mint"`
	Name         string `ch:"name"`
	Symbol       string `ch:"symbol"`
	URI          string `ch:"uri"`
	BondingCurve string `ch:"bonding_curve"`
	Creator      string `ch:"creator"`
	User         string `ch:"user"`
}

// MigrateEventRow is the `pumpfun_migrate_event_v2` schema.
type MigrateEventRow struct {
	Key
	Mint             string `ch:"mint"`
	MintAmount       uint64 `ch:"mint_amount"`
	SolAmount        uint64 `ch:"sol_amount"`
	PoolMigrationFee uint64 `ch:"pool_migration_fee"`
	BondingCurve     string `ch:"bonding_curve"`
	Pool             string `ch:"pool"`
	User             string `ch:"user"`
}

// AmmBuyEventRow is the `pumpfun_amm_buy_event_v2` schema.
type AmmBuyEventRow struct {
	Key
	Pool                   string `ch:"pool"`
	BaseMint               string `ch:"base_mint"`
	QuoteMint              string `ch:"quote_mint"`
	User                   string `ch:"user"`
	BaseAmountOut          uint64 `ch:"base_amount_out"`
	QuoteAmountIn          uint64 `ch:"quote_amount_in"`
	LpFeeBasisPoints       uint64 `ch:"lp_fee_basis_points"`
	ProtocolFeeBasisPoints uint64 `ch:"protocol_fee_basis_points"`
	PoolBaseTokenReserves  uint64 `ch:"pool_base_token_reserves"`
	PoolQuoteTokenReserves uint64 `ch:"pool_quote_token_reserves"`
}

// AmmSellEventRow is the `pumpfun_amm_sell_event_v2` schema.
type AmmSellEventRow struct {
	Key
	Pool                   string `ch:"pool"`
	BaseMint               string `ch:"base_mint"`
	QuoteMint              string `ch:"quote_mint"`
	User                   string `ch:"user"`
	BaseAmountIn           uint64 `ch:"base_amount_in"`
	QuoteAmountOut         uint64 `ch:"quote_amount_out"`
	LpFeeBasisPoints       uint64 `ch:"lp_fee_basis_points"`
	ProtocolFeeBasisPoints uint64 `ch:"protocol_fee_basis_points"`
	PoolBaseTokenReserves  uint64 `ch:"pool_base_token_reserves"`
	PoolQuoteTokenReserves uint64 `ch:"pool_quote_token_reserves"`
}

// AmmCreatePoolEventRow is the `pumpfun_amm_create_pool_event_v2` schema.
type AmmCreatePoolEventRow struct {
	Key
	Pool           string `ch:"pool"`
	BaseMint       string `ch:"base_mint"`
	QuoteMint      string `ch:"quote_mint"`
	Creator        string `ch:"creator"`
	BaseAmount     uint64 `ch:"base_amount"`
	QuoteAmount    uint64 `ch:"quote_amount"`
	LpMint         string `ch:"lp_mint"`
	LpMintDecimals uint8  `ch:"lp_mint_decimals"`
}

// AmmDepositEventRow is the `pumpfun_amm_deposit_event_v2` schema.
type AmmDepositEventRow struct {
	Key
	Pool                   string `ch:"pool"`
	User                   string `ch:"user"`
	BaseAmount             uint64 `ch:"base_amount"`
	QuoteAmount            uint64 `ch:"quote_amount"`
	LpMintAmount           uint64 `ch:"lp_mint_amount"`
	PoolBaseTokenReserves  uint64 `ch:"pool_base_token_reserves"`
	PoolQuoteTokenReserves uint64 `ch:"pool_quote_token_reserves"`
}

// AmmWithdrawEventRow is the `pumpfun_amm_withdraw_event_v2` schema.
type AmmWithdrawEventRow struct {
	Key
	Pool                   string `ch:"pool"`
	User                   string `ch:"user"`
	BaseAmountOut          uint64 `ch:"base_amount_out"`
	QuoteAmountOut         uint64 `ch:"quote_amount_out"`
	LpMintAmount           uint64 `ch:"lp_mint_amount"`
	PoolBaseTokenReserves  uint64 `ch:"pool_base_token_reserves"`
	PoolQuoteTokenReserves uint64 `ch:"pool_quote_token_reserves"`
}

// TableNames maps each of the eight event streams to its destination
// table, overridable per the subscriber config's [tables] section.
type TableNames struct {
	Trade         string
	Create        string
	Migrate       string
	AmmBuy        string
	AmmSell       string
	AmmCreatePool string
	AmmDeposit    string
	AmmWithdraw   string
}

// DefaultTableNames returns the canonical `pumpfun_*_event_v2` names.
func DefaultTableNames() TableNames {
	return TableNames{
		Trade:         "pumpfun_trade_event_v2",
		Create:        "pumpfun_create_event_v2",
		Migrate:       "pumpfun_migrate_event_v2",
		AmmBuy:        "pumpfun_amm_buy_event_v2",
		AmmSell:       "pumpfun_amm_sell_event_v2",
		AmmCreatePool: "pumpfun_amm_create_pool_event_v2",
		AmmDeposit:    "pumpfun_amm_deposit_event_v2",
		AmmWithdraw:   "pumpfun_amm_withdraw_event_v2",
	}
}

// Row is implemented by every event schema. Columns and Values must stay
// in lockstep: Values()[i] is the value for Columns()[i].
type Row interface {
	Columns() []string
	Values() []any
}

func keyColumns() []string {
	return []string{"signature", "slot", "transaction_index", "instruction_index", "timestamp"}
}

func (k Key) values() []any {
	return []any{k.Signature, k.Slot, k.TransactionIndex, k.InstructionIndex, k.Timestamp}
}

func (r TradeEventRow) Columns() []string {
	return append(keyColumns(), "mint", "sol_amount", "token_amount", "is_buy", "user",
		"virtual_sol_reserves", "virtual_token_reserves", "real_sol_reserves", "real_token_reserves",
		"fee_recipient", "fee_basis_points", "creator", "creator_fee_basis_points")
}

func (r TradeEventRow) Values() []any {
	return append(r.Key.values(), r.Mint, r.SolAmount, r.TokenAmount, r.IsBuy, r.User,
		r.VirtualSolReserves, r.VirtualTokenReserves, r.RealSolReserves, r.RealTokenReserves,
		r.FeeRecipient, r.FeeBasisPoints, r.Creator, r.CreatorFeeBasisPoints)
}

func (r CreateEventRow) Columns() []string {
	return append(keyColumns(), "mint", "name", "symbol", "uri", "bonding_curve", "creator", "user")
}

func (r CreateEventRow) Values() []any {
	return append(r.Key.values(), r.Mint, r.Name, r.Symbol, r.URI, r.BondingCurve, r.Creator, r.User)
}

func (r MigrateEventRow) Columns() []string {
	return append(keyColumns(), "mint", "mint_amount", "sol_amount", "pool_migration_fee",
		"bonding_curve", "pool", "user")
}

func (r MigrateEventRow) Values() []any {
	return append(r.Key.values(), r.Mint, r.MintAmount, r.SolAmount, r.PoolMigrationFee,
		r.BondingCurve, r.Pool, r.User)
}

func (r AmmBuyEventRow) Columns() []string {
	return append(keyColumns(), "pool", "base_mint", "quote_mint", "user", "base_amount_out",
		"quote_amount_in", "lp_fee_basis_points", "protocol_fee_basis_points",
		"pool_base_token_reserves", "pool_quote_token_reserves")
}

func (r AmmBuyEventRow) Values() []any {
	return append(r.Key.values(), r.Pool, r.BaseMint, r.QuoteMint, r.User, r.BaseAmountOut,
		r.QuoteAmountIn, r.LpFeeBasisPoints, r.ProtocolFeeBasisPoints,
		r.PoolBaseTokenReserves, r.PoolQuoteTokenReserves)
}

func (r AmmSellEventRow) Columns() []string {
	return append(keyColumns(), "pool", "base_mint", "quote_mint", "user", "base_amount_in",
		"quote_amount_out", "lp_fee_basis_points", "protocol_fee_basis_points",
		"pool_base_token_reserves", "pool_quote_token_reserves")
}

func (r AmmSellEventRow) Values() []any {
	return append(r.Key.values(), r.Pool, r.BaseMint, r.QuoteMint, r.User, r.BaseAmountIn,
		r.QuoteAmountOut, r.LpFeeBasisPoints, r.ProtocolFeeBasisPoints,
		r.PoolBaseTokenReserves, r.PoolQuoteTokenReserves)
}

func (r AmmCreatePoolEventRow) Columns() []string {
	return append(keyColumns(), "pool", "base_mint", "quote_mint", "creator", "base_amount",
		"quote_amount", "lp_mint", "lp_mint_decimals")
}

func (r AmmCreatePoolEventRow) Values() []any {
	return append(r.Key.values(), r.Pool, r.BaseMint, r.QuoteMint, r.Creator, r.BaseAmount,
		r.QuoteAmount, r.LpMint, r.LpMintDecimals)
}

func (r AmmDepositEventRow) Columns() []string {
	return append(keyColumns(), "pool", "user", "base_amount", "quote_amount", "lp_mint_amount",
		"pool_base_token_reserves", "pool_quote_token_reserves")
}

func (r AmmDepositEventRow) Values() []any {
	return append(r.Key.values(), r.Pool, r.User, r.BaseAmount, r.QuoteAmount, r.LpMintAmount,
		r.PoolBaseTokenReserves, r.PoolQuoteTokenReserves)
}

func (r AmmWithdrawEventRow) Columns() []string {
	return append(keyColumns(), "pool", "user", "base_amount_out", "quote_amount_out", "lp_mint_amount",
		"pool_base_token_reserves", "pool_quote_token_reserves")
}

func (r AmmWithdrawEventRow) Values() []any {
	return append(r.Key.values(), r.Pool, r.User, r.BaseAmountOut, r.QuoteAmountOut, r.LpMintAmount,
		r.PoolBaseTokenReserves, r.PoolQuoteTokenReserves)
}

// ScanInto reconstructs a row of type T from a flat value slice in the
// same order T's Values() would produce — the shape read back out of a
// Parquet file or a store query result set. T's fields (including the
// embedded Key) are walked in declaration order via reflection, which is
// the only piece of this package not grounded on a third-party struct
// mapper: none of the example repos' dependencies provide a generic
// columnar-row-to-struct mapper, so plain reflect fills that one gap.
func ScanInto[T any](vals []any) (T, error) {
	var out T
	rv := reflect.ValueOf(&out).Elem()

	idx := 0
	var walk func(v reflect.Value) error
	walk = func(v reflect.Value) error {
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if v.Type().Field(i).Anonymous && f.Kind() == reflect.Struct {
				if err := walk(f); err != nil {
					return err
				}
				continue
			}
			if idx >= len(vals) {
				return fmt.Errorf("events: ScanInto: not enough values for %s", v.Type())
			}
			if err := assign(f, vals[idx]); err != nil {
				return fmt.Errorf("events: ScanInto: field %s: %w", v.Type().Field(i).Name, err)
			}
			idx++
		}
		return nil
	}

	if err := walk(rv); err != nil {
		return out, err
	}
	return out, nil
}

func assign(f reflect.Value, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.Type().ConvertibleTo(f.Type()) {
		return fmt.Errorf("cannot assign %s to %s", rv.Type(), f.Type())
	}
	f.Set(rv.Convert(f.Type()))
	return nil
}
