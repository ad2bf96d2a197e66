package telepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_EncodeDecodeRoundTrip(t *testing.T) {
	sig := Signal{
		TimestampSec: 100,
		UUID:         "abc",
		SenderAgent:  "squirrel",
		Authority:    3,
		ContentType:  "transaction",
		Payload:      []byte{1, 2, 3},
	}

	data, err := encode(sig)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sig, got)
}
