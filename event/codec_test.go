// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEventRoundTrip(t *testing.T) {
	require := require.New(t)

	actor := ids.GenerateTestNodeID()
	witness := ids.GenerateTestNodeID()

	original := Event{
		Header: Header{
			EventID:   ids.GenerateTestID(),
			PrevHash:  ids.GenerateTestID(),
			ChainHash: ids.GenerateTestID(),
			Signature: []byte{1, 2, 3, 4},
			Timestamp: time.Now().UTC().Truncate(time.Microsecond),
			ActorID:   actor,
			Epoch:     3,
			CycleID:   ids.GenerateTestID(),
			Kind:      KindMotionProposed,
			Witnesses: []WitnessSignature{{WitnessID: witness, Signature: []byte{9, 9}}},
		},
		Body: MotionProposedBody{
			MotionID:   ids.GenerateTestID(),
			Text:       "adopt charter",
			Supporters: []ids.NodeID{actor, witness},
			Level:      LevelLow,
		},
	}

	raw, err := encodeEvent(original)
	require.NoError(err)

	decoded, err := decodeEvent(raw)
	require.NoError(err)

	require.Equal(original.Header, decoded.Header)
	require.Equal(original.Body, decoded.Body)
	require.True(decoded.VerifyKindMatch())
}

func TestDecodeBodyUnknownKind(t *testing.T) {
	_, err := decodeBody(Kind("NotReal"), []byte(`{}`))
	require.Error(t, err)
}
