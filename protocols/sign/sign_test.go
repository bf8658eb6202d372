package sign_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tecdsa-go/tecdsa/internal/test"
	"github.com/tecdsa-go/tecdsa/pkg/ecdsa"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
	"github.com/tecdsa-go/tecdsa/protocols/keygen"
	"github.com/tecdsa-go/tecdsa/protocols/presign"
	"github.com/tecdsa-go/tecdsa/protocols/sign"
	"github.com/tecdsa-go/tecdsa/protocols/triples"
)

func runKeygen(t *testing.T, group curve.Curve, pl *pool.Pool, partyIDs party.IDSlice, threshold int) map[party.ID]*keygen.Output {
	t.Helper()
	handlers := make(map[party.ID]*protocol.MultiHandler, len(partyIDs))
	for _, id := range partyIDs {
		h, err := protocol.NewMultiHandler(keygen.Start(group, pl, id, partyIDs, threshold), []byte("keygen session"))
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
			require.NoError(t, test.HandlerLoop(id, h, network))
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

func runTriples(t *testing.T, group curve.Curve, pl *pool.Pool, partyIDs party.IDSlice, threshold int, session string) map[party.ID]*triples.Output {
	t.Helper()
	handlers := make(map[party.ID]*protocol.MultiHandler, len(partyIDs))
	for _, id := range partyIDs {
		h, err := protocol.NewMultiHandler(triples.Start(group, pl, id, partyIDs, threshold, 1), []byte(session))
		require.NoError(t, err)
		handlers[id] = h
	}

	network := test.NewNetwork(partyIDs)
	results := make(map[party.ID]*triples.Output, len(partyIDs))
	var mtx sync.Mutex
	var wg sync.WaitGroup
	for _, id := range partyIDs {
		id, h := id, handlers[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, test.HandlerLoop(id, h, network))
			result, err := h.Result()
			require.NoError(t, err)
			out, ok := result.(triples.Output)
			require.True(t, ok)
			mtx.Lock()
			results[id] = &out
			mtx.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func runPresign(
	t *testing.T,
	group curve.Curve,
	pl *pool.Pool,
	partyIDs party.IDSlice,
	keys map[party.ID]*keygen.Output,
	nonceTriples, maskTriples map[party.ID]*triples.Output,
) map[party.ID]*presign.Output {
	t.Helper()
	handlers := make(map[party.ID]*protocol.MultiHandler, len(partyIDs))
	for _, id := range partyIDs {
		h, err := protocol.NewMultiHandler(presign.Start(
			group, pl, id,
			*keys[id], partyIDs,
			nonceTriples[id].Shares[0], nonceTriples[id].Public[0],
			maskTriples[id].Shares[0], maskTriples[id].Public[0],
		), []byte("presign session"))
		require.NoError(t, err)
		handlers[id] = h
	}

	network := test.NewNetwork(partyIDs)
	results := make(map[party.ID]*presign.Output, len(partyIDs))
	var mtx sync.Mutex
	var wg sync.WaitGroup
	for _, id := range partyIDs {
		id, h := id, handlers[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, test.HandlerLoop(id, h, network))
			result, err := h.Result()
			require.NoError(t, err)
			out, ok := result.(presign.Output)
			require.True(t, ok)
			mtx.Lock()
			results[id] = &out
			mtx.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func runSign(
	t *testing.T,
	group curve.Curve,
	pl *pool.Pool,
	partyIDs party.IDSlice,
	threshold int,
	presigs map[party.ID]*presign.Output,
	publicKey curve.Point,
	messageHash []byte,
) map[party.ID]*ecdsa.Signature {
	t.Helper()
	handlers := make(map[party.ID]*protocol.MultiHandler, len(partyIDs))
	for _, id := range partyIDs {
		h, err := protocol.NewMultiHandler(sign.Start(
			group, pl, id, partyIDs, threshold,
			*presigs[id], publicKey, messageHash,
		), []byte("sign session"))
		require.NoError(t, err)
		handlers[id] = h
	}

	network := test.NewNetwork(partyIDs)
	results := make(map[party.ID]*ecdsa.Signature, len(partyIDs))
	var mtx sync.Mutex
	var wg sync.WaitGroup
	for _, id := range partyIDs {
		id, h := id, handlers[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, test.HandlerLoop(id, h, network))
			result, err := h.Result()
			require.NoError(t, err)
			sig, ok := result.(*ecdsa.Signature)
			require.True(t, ok)
			mtx.Lock()
			results[id] = sig
			mtx.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func TestSignEndToEnd(t *testing.T) {
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)
	partyIDs := test.PartyIDs(4)
	threshold := 3

	keys := runKeygen(t, group, pl, partyIDs, threshold)
	publicKey := keys[partyIDs[0]].PublicKey

	nonceTriples := runTriples(t, group, pl, partyIDs, threshold, "nonce triples")
	maskTriples := runTriples(t, group, pl, partyIDs, threshold, "mask triples")
	presigs := runPresign(t, group, pl, partyIDs, keys, nonceTriples, maskTriples)

	messageHash := make([]byte, 32)
	copy(messageHash, []byte("hello world, hashed to 32 bytes"))

	sigs := runSign(t, group, pl, partyIDs, threshold, presigs, publicKey, messageHash)
	require.Len(t, sigs, len(partyIDs))

	first := sigs[partyIDs[0]]
	for _, id := range partyIDs {
		require.True(t, sigs[id].R.Equal(first.R), "party %s disagrees on R", id)
		require.True(t, sigs[id].S.Equal(first.S), "party %s disagrees on s", id)
		require.Equal(t, first.WasFlipped, sigs[id].WasFlipped)
		require.True(t, sigs[id].Verify(group, publicKey, messageHash))
	}
}

func TestSignAcceptsZeroMessageHash(t *testing.T) {
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)
	partyIDs := test.PartyIDs(3)
	threshold := 2

	keys := runKeygen(t, group, pl, partyIDs, threshold)
	publicKey := keys[partyIDs[0]].PublicKey

	nonceTriples := runTriples(t, group, pl, partyIDs, threshold, "nonce triples b")
	maskTriples := runTriples(t, group, pl, partyIDs, threshold, "mask triples b")
	presigs := runPresign(t, group, pl, partyIDs, keys, nonceTriples, maskTriples)

	messageHash := make([]byte, 32)

	sigs := runSign(t, group, pl, partyIDs, threshold, presigs, publicKey, messageHash)
	require.Len(t, sigs, len(partyIDs))
	for _, id := range partyIDs {
		require.True(t, sigs[id].Verify(group, publicKey, messageHash))
	}
}
