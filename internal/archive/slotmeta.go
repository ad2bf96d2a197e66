// Package archive implements the archive block processor (C4), its file
// scanner, and the append-only completion tracker (C6).
package archive

// SlotEntry locates one slot's compressed Block payload within a `.bin`
// file. Offset is nil when the slot was never captured (skipped, not an
// error).
type SlotEntry struct {
	Slot   uint64  `msgpack:"slot"`
	Offset *uint64 `msgpack:"offset"`
	Size   uint64  `msgpack:"size"`
}

// Block is the decoded payload of one slot. Producing it from the raw
// wire bytes — decompression and MessagePack decode — happens in
// Processor; turning each of its RawTxEnvelopes into a parsed Transaction
// is delegated to the Converter, an external collaborator (the upstream
// transaction-parser library) whose interface only is specified here.
type Block struct {
	Slot         uint64        `msgpack:"slot"`
	Transactions []RawTxEnvelope `msgpack:"transactions"`
}

// RawTxEnvelope is the wire shape of one transaction inside a Block,
// exactly as produced by the external parser collaborator. Converter
// turns this into the extractor's txmodel.Transaction.
type RawTxEnvelope struct {
	Signature        [64]byte `msgpack:"signature"`
	Slot             uint64   `msgpack:"slot"`
	TransactionIndex uint32   `msgpack:"transaction_index"`
	Timestamp        uint32   `msgpack:"timestamp"`
	Instructions     []byte   `msgpack:"instructions"` // opaque, parser-specific encoding
}
