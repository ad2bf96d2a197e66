package main

import (
	"fmt"

	"github.com/pumpfun-analytics/ingestor/internal/archive"
	"github.com/pumpfun-analytics/ingestor/internal/txmodel"
)

// notImplementedConverter satisfies archive.Converter and
// liveingest.Decoder. Actual decoding of the upstream parser's wire
// format into txmodel types is an external collaborator per scope (§1);
// a deployment wires in its own implementation here.
type notImplementedConverter struct{}

func (notImplementedConverter) Convert(archive.RawTxEnvelope) (txmodel.Transaction, error) {
	return txmodel.Transaction{}, fmt.Errorf("ingestor: no transaction converter wired")
}

func (notImplementedConverter) Decode([]byte) (txmodel.Transaction, error) {
	return txmodel.Transaction{}, fmt.Errorf("ingestor: no transaction decoder wired")
}
