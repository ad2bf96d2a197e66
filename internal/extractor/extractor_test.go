package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpfun-analytics/ingestor/internal/events"
	"github.com/pumpfun-analytics/ingestor/internal/txmodel"
)

func mintKey(b byte) txmodel.PubKey {
	var k txmodel.PubKey
	k[0] = b
	return k
}

func TestExtract_SingleTradePair(t *testing.T) {
	mint := mintKey(7)
	tx := &txmodel.Transaction{
		Slot:             362690000,
		TransactionIndex: 7,
		Instructions: []txmodel.Instruction{
			{Tag: "PumpFunBuy", Payload: txmodel.PumpFunBuy{Amount: 1000}},
			{Tag: txmodel.TagTradeEvent, Payload: txmodel.TradeEvent{
				Mint:      mint,
				SolAmount: 1000,
				IsBuy:     true,
			}},
		},
	}

	var out EventSet
	Extract(tx, &out)

	require.Len(t, out.Trade, 1)
	row := out.Trade[0]
	assert.EqualValues(t, 1, row.InstructionIndex)
	assert.EqualValues(t, 1, row.IsBuy)
	assert.EqualValues(t, 1000, row.SolAmount)
	assert.Equal(t, events.EncodeKey32(mint), row.Mint)
}

func TestExtract_UnpairedLeadingEvent(t *testing.T) {
	tx := &txmodel.Transaction{
		Instructions: []txmodel.Instruction{
			{Tag: txmodel.TagTradeEvent, Payload: txmodel.TradeEvent{}},
		},
	}

	var out EventSet
	Extract(tx, &out)

	assert.True(t, out.IsEmpty())
}

func TestExtract_ConsecutiveEvents_SecondDropped(t *testing.T) {
	tx := &txmodel.Transaction{
		Instructions: []txmodel.Instruction{
			{Tag: "PumpFunBuy", Payload: txmodel.PumpFunBuy{}},
			{Tag: txmodel.TagTradeEvent, Payload: txmodel.TradeEvent{}},
			{Tag: txmodel.TagTradeEvent, Payload: txmodel.TradeEvent{}},
		},
	}

	var out EventSet
	Extract(tx, &out)

	assert.Len(t, out.Trade, 1)
}

func TestExtract_MismatchedActionVariantDropped(t *testing.T) {
	tx := &txmodel.Transaction{
		Instructions: []txmodel.Instruction{
			{Tag: "PumpFunCreate", Payload: txmodel.PumpFunCreate{}},
			{Tag: txmodel.TagAmmBuyEvent, Payload: txmodel.AmmBuyEvent{}},
		},
	}

	var out EventSet
	Extract(tx, &out)

	assert.True(t, out.IsEmpty())
}

func TestExtract_EmptyInstructionList(t *testing.T) {
	tx := &txmodel.Transaction{}

	var out EventSet
	Extract(tx, &out)

	assert.True(t, out.IsEmpty())
}

func TestEventSet_TakeEmptiesSource(t *testing.T) {
	var out EventSet
	out.Create = append(out.Create, events.CreateEventRow{})

	taken := out.Take()

	assert.Len(t, taken.Create, 1)
	assert.True(t, out.IsEmpty())
}
