// Package extractor implements the event extraction state machine (C1):
// it walks the ordered instruction list of a transaction, pairs each
// recognized event instruction with the immediately preceding action
// instruction, and emits one strongly-typed row per pair.
//
// Extract is a pure function: no I/O, no allocation of its output beyond
// appending to the caller-provided EventSet.
package extractor

import (
	"github.com/pumpfun-analytics/ingestor/internal/events"
	"github.com/pumpfun-analytics/ingestor/internal/txmodel"
)

// EventSet holds the eight parallel output sequences a single Extract call
// (or a whole batch of them) appends into.
type EventSet struct {
	Trade         []events.TradeEventRow
	Create        []events.CreateEventRow
	Migrate       []events.MigrateEventRow
	AmmBuy        []events.AmmBuyEventRow
	AmmSell       []events.AmmSellEventRow
	AmmCreatePool []events.AmmCreatePoolEventRow
	AmmDeposit    []events.AmmDepositEventRow
	AmmWithdraw   []events.AmmWithdrawEventRow
}

// Len returns the total number of rows currently held across all eight
// streams.
func (s *EventSet) Len() int {
	return len(s.Trade) + len(s.Create) + len(s.Migrate) + len(s.AmmBuy) +
		len(s.AmmSell) + len(s.AmmCreatePool) + len(s.AmmDeposit) + len(s.AmmWithdraw)
}

// IsEmpty reports whether every stream is empty.
func (s *EventSet) IsEmpty() bool { return s.Len() == 0 }

// Reset clears all eight streams in place without reallocating backing
// arrays smaller than their previous capacity.
func (s *EventSet) Reset() {
	s.Trade = s.Trade[:0]
	s.Create = s.Create[:0]
	s.Migrate = s.Migrate[:0]
	s.AmmBuy = s.AmmBuy[:0]
	s.AmmSell = s.AmmSell[:0]
	s.AmmCreatePool = s.AmmCreatePool[:0]
	s.AmmDeposit = s.AmmDeposit[:0]
	s.AmmWithdraw = s.AmmWithdraw[:0]
}

// Take moves the current contents out into a fresh, empty EventSet,
// leaving s ready for further accumulation. Used by the batch accumulator
// on flush.
func (s *EventSet) Take() EventSet {
	taken := *s
	s.Trade = nil
	s.Create = nil
	s.Migrate = nil
	s.AmmBuy = nil
	s.AmmSell = nil
	s.AmmCreatePool = nil
	s.AmmDeposit = nil
	s.AmmWithdraw = nil
	return taken
}

// Extract walks tx.Instructions and appends one row per matched
// (action, event) pair into out. Malformed pairings — an event with no
// pending action, or a pending action of the wrong variant — are silently
// dropped, per the protocol's at-least-once, no-exactly-once contract.
func Extract(tx *txmodel.Transaction, out *EventSet) {
	var pending *txmodel.Instruction

	for i := range tx.Instructions {
		instr := &tx.Instructions[i]

		if !txmodel.IsEventTag(instr.Tag) {
			pending = instr
			continue
		}

		if pending == nil {
			pending = nil // no-op, documents the "leading event" boundary case
			continue
		}

		key := events.Key{
			Signature:        events.EncodeKey64(tx.Signature),
			Slot:             tx.Slot,
			TransactionIndex: tx.TransactionIndex,
			InstructionIndex: uint32(i),
			Timestamp:        tx.Timestamp,
		}

		matched := applyPair(out, key, pending, instr)
		pending = nil
		if !matched {
			continue
		}
	}
}

// applyPair attempts to combine a pending action and the event that
// followed it into a typed row. Returns false if the action/event variant
// combination is not one of the recognized pairs.
func applyPair(out *EventSet, key events.Key, action, event *txmodel.Instruction) bool {
	switch event.Tag {
	case txmodel.TagTradeEvent:
		ev, ok := event.Payload.(txmodel.TradeEvent)
		if !ok {
			return false
		}
		switch action.Tag {
		case "PumpFunBuy", "PumpFunSell":
			out.Trade = append(out.Trade, events.TradeEventRow{
				Key:                   key,
				Mint:                  events.EncodeKey32(ev.Mint),
				SolAmount:             ev.SolAmount,
				TokenAmount:           ev.TokenAmount,
				IsBuy:                 events.Bool01(ev.IsBuy),
				User:                  events.EncodeKey32(ev.User),
				VirtualSolReserves:    ev.VirtualSolReserves,
				VirtualTokenReserves:  ev.VirtualTokenReserves,
				RealSolReserves:       ev.RealSolReserves,
				RealTokenReserves:     ev.RealTokenReserves,
				FeeRecipient:          events.EncodeKey32(ev.FeeRecipient),
				FeeBasisPoints:        ev.FeeBasisPoints,
				Creator:               events.EncodeKey32(ev.Creator),
				CreatorFeeBasisPoints: ev.CreatorFeeBasisPoints,
			})
			return true
		}
		return false

	case txmodel.TagCreateEvent:
		ev, ok := event.Payload.(txmodel.CreateEvent)
		if !ok || action.Tag != "PumpFunCreate" {
			return false
		}
		out.Create = append(out.Create, events.CreateEventRow{
			Key:          key,
			Mint:         events.EncodeKey32(ev.Mint),
			Name:         ev.Name,
			Symbol:       ev.Symbol,
			URI:          ev.URI,
			BondingCurve: events.EncodeKey32(ev.BondingCurve),
			Creator:      events.EncodeKey32(ev.Creator),
			User:         events.EncodeKey32(ev.User),
		})
		return true

	case txmodel.TagMigrateEvent:
		ev, ok := event.Payload.(txmodel.MigrateEvent)
		if !ok || action.Tag != "PumpFunMigrate" {
			return false
		}
		out.Migrate = append(out.Migrate, events.MigrateEventRow{
			Key:              key,
			Mint:             events.EncodeKey32(ev.Mint),
			MintAmount:       ev.MintAmount,
			SolAmount:        ev.SolAmount,
			PoolMigrationFee: ev.PoolMigrationFee,
			BondingCurve:     events.EncodeKey32(ev.BondingCurve),
			Pool:             events.EncodeKey32(ev.Pool),
			User:             events.EncodeKey32(ev.User),
		})
		return true

	case txmodel.TagAmmBuyEvent:
		ev, ok := event.Payload.(txmodel.AmmBuyEvent)
		if !ok || action.Tag != "PumpFunAmmBuy" {
			return false
		}
		out.AmmBuy = append(out.AmmBuy, events.AmmBuyEventRow{
			Key:                    key,
			Pool:                   events.EncodeKey32(ev.Pool),
			BaseMint:               events.EncodeKey32(ev.BaseMint),
			QuoteMint:              events.EncodeKey32(ev.QuoteMint),
			User:                   events.EncodeKey32(ev.User),
			BaseAmountOut:          ev.BaseAmountOut,
			QuoteAmountIn:          ev.QuoteAmountIn,
			LpFeeBasisPoints:       ev.LpFeeBasisPoints,
			ProtocolFeeBasisPoints: ev.ProtocolFeeBasisPoints,
			PoolBaseTokenReserves:  ev.PoolBaseTokenReserves,
			PoolQuoteTokenReserves: ev.PoolQuoteTokenReserves,
		})
		return true

	case txmodel.TagAmmSellEvent:
		ev, ok := event.Payload.(txmodel.AmmSellEvent)
		if !ok || action.Tag != "PumpFunAmmSell" {
			return false
		}
		out.AmmSell = append(out.AmmSell, events.AmmSellEventRow{
			Key:                    key,
			Pool:                   events.EncodeKey32(ev.Pool),
			BaseMint:               events.EncodeKey32(ev.BaseMint),
			QuoteMint:              events.EncodeKey32(ev.QuoteMint),
			User:                   events.EncodeKey32(ev.User),
			BaseAmountIn:           ev.BaseAmountIn,
			QuoteAmountOut:         ev.QuoteAmountOut,
			LpFeeBasisPoints:       ev.LpFeeBasisPoints,
			ProtocolFeeBasisPoints: ev.ProtocolFeeBasisPoints,
			PoolBaseTokenReserves:  ev.PoolBaseTokenReserves,
			PoolQuoteTokenReserves: ev.PoolQuoteTokenReserves,
		})
		return true

	case txmodel.TagAmmCreatePoolEvent:
		ev, ok := event.Payload.(txmodel.AmmCreatePoolEvent)
		if !ok || action.Tag != "PumpFunAmmCreatePool" {
			return false
		}
		out.AmmCreatePool = append(out.AmmCreatePool, events.AmmCreatePoolEventRow{
			Key:            key,
			Pool:           events.EncodeKey32(ev.Pool),
			BaseMint:       events.EncodeKey32(ev.BaseMint),
			QuoteMint:      events.EncodeKey32(ev.QuoteMint),
			Creator:        events.EncodeKey32(ev.Creator),
			BaseAmount:     ev.BaseAmount,
			QuoteAmount:    ev.QuoteAmount,
			LpMint:         events.EncodeKey32(ev.LpMint),
			LpMintDecimals: ev.LpMintDecimals,
		})
		return true

	case txmodel.TagAmmDepositEvent:
		ev, ok := event.Payload.(txmodel.AmmDepositEvent)
		if !ok || action.Tag != "PumpFunAmmDeposit" {
			return false
		}
		out.AmmDeposit = append(out.AmmDeposit, events.AmmDepositEventRow{
			Key:                    key,
			Pool:                   events.EncodeKey32(ev.Pool),
			User:                   events.EncodeKey32(ev.User),
			BaseAmount:             ev.BaseAmount,
			QuoteAmount:            ev.QuoteAmount,
			LpMintAmount:           ev.LpMintAmount,
			PoolBaseTokenReserves:  ev.PoolBaseTokenReserves,
			PoolQuoteTokenReserves: ev.PoolQuoteTokenReserves,
		})
		return true

	case txmodel.TagAmmWithdrawEvent:
		ev, ok := event.Payload.(txmodel.AmmWithdrawEvent)
		if !ok || action.Tag != "PumpFunAmmWithdraw" {
			return false
		}
		out.AmmWithdraw = append(out.AmmWithdraw, events.AmmWithdrawEventRow{
			Key:                    key,
			Pool:                   events.EncodeKey32(ev.Pool),
			User:                   events.EncodeKey32(ev.User),
			BaseAmountOut:          ev.BaseAmountOut,
			QuoteAmountOut:         ev.QuoteAmountOut,
			LpMintAmount:           ev.LpMintAmount,
			PoolBaseTokenReserves:  ev.PoolBaseTokenReserves,
			PoolQuoteTokenReserves: ev.PoolQuoteTokenReserves,
		})
		return true
	}

	return false
}
