package archive

import "github.com/pumpfun-analytics/ingestor/internal/txmodel"

// Converter turns one wire-format transaction envelope into the decoded
// shape the extractor consumes. Its implementation lives with the
// upstream transaction-parser library (an external collaborator per
// scope); Processor only depends on this interface.
type Converter interface {
	Convert(RawTxEnvelope) (txmodel.Transaction, error)
}
