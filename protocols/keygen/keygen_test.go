package keygen_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tecdsa-go/tecdsa/internal/test"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
	"github.com/tecdsa-go/tecdsa/protocols/keygen"
)

func runKeygen(t *testing.T, partyIDs party.IDSlice, threshold int) map[party.ID]*keygen.Output {
	t.Helper()
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)

	handlers := make(map[party.ID]*protocol.MultiHandler, len(partyIDs))
	for _, id := range partyIDs {
		h, err := protocol.NewMultiHandler(keygen.Start(group, pl, id, partyIDs, threshold), []byte("test session"))
		require.NoError(t, err)
		handlers[id] = h
	}

	network := test.NewNetwork(partyIDs)
	results := make(map[party.ID]*keygen.Output, len(partyIDs))
	var mtx sync.Mutex
	var wg sync.WaitGroup
	for _, id := range partyIDs {
		id, h := id, handlers[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := test.HandlerLoop(id, h, network)
			require.NoError(t, err)
			result, err := h.Result()
			require.NoError(t, err)
			out, ok := result.(keygen.Output)
			require.True(t, ok)
			mtx.Lock()
			results[id] = &out
			mtx.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func TestKeygenAgreesOnPublicKey(t *testing.T) {
	partyIDs := test.PartyIDs(5)
	threshold := 3

	results := runKeygen(t, partyIDs, threshold)
	require.Len(t, results, len(partyIDs))

	first := results[partyIDs[0]]
	for _, id := range partyIDs {
		out := results[id]
		require.NotNil(t, out)
		require.True(t, out.PublicKey.Equal(first.PublicKey), "party %s disagrees on the public key", id)
	}
}

func TestKeygenSharesReconstructPrivateKey(t *testing.T) {
	group := curve.Secp256k1{}
	partyIDs := test.PartyIDs(4)
	threshold := 3

	results := runKeygen(t, partyIDs, threshold)

	shares := make(map[party.ID]curve.Scalar, threshold)
	for i, id := range partyIDs {
		if i >= threshold {
			break
		}
		shares[id] = results[id].PrivateShare
	}

	reconstructed, err := keygen.CombineShares(group, shares)
	require.NoError(t, err)

	expected := reconstructed.ActOnBase()
	require.True(t, expected.Equal(results[partyIDs[0]].PublicKey))
}

func TestKeygenThresholdTooSmall(t *testing.T) {
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)
	partyIDs := test.PartyIDs(3)

	_, err := protocol.NewMultiHandler(keygen.Start(group, pl, partyIDs[0], partyIDs, 1), []byte("test session"))
	require.Error(t, err)
}
