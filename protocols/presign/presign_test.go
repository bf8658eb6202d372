package presign_test

import (
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/require"
	"github.com/tecdsa-go/tecdsa/internal/test"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
	"github.com/tecdsa-go/tecdsa/protocols/keygen"
	"github.com/tecdsa-go/tecdsa/protocols/presign"
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

func runTriples(t *testing.T, group curve.Curve, pl *pool.Pool, partyIDs party.IDSlice, threshold, triplesCount int, session string) map[party.ID]*triples.Output {
	t.Helper()
	handlers := make(map[party.ID]*protocol.MultiHandler, len(partyIDs))
	for _, id := range partyIDs {
		h, err := protocol.NewMultiHandler(triples.Start(group, pl, id, partyIDs, threshold, triplesCount), []byte(session))
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

func TestPresignAgreesOnNoncePoint(t *testing.T) {
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)
	partyIDs := test.PartyIDs(4)
	threshold := 3

	keys := runKeygen(t, group, pl, partyIDs, threshold)
	nonceTriples := runTriples(t, group, pl, partyIDs, threshold, 1, "nonce triples")
	maskTriples := runTriples(t, group, pl, partyIDs, threshold, 1, "mask triples")

	results := runPresign(t, group, pl, partyIDs, keys, nonceTriples, maskTriples)
	require.Len(t, results, len(partyIDs))

	first := results[partyIDs[0]]
	for _, id := range partyIDs {
		require.True(t, results[id].R.Equal(first.R), "party %s disagrees on R", id)
	}
}

func TestPresignSharesReconstructInvariants(t *testing.T) {
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)
	partyIDs := test.PartyIDs(4)
	threshold := 3

	keys := runKeygen(t, group, pl, partyIDs, threshold)
	nonceTriples := runTriples(t, group, pl, partyIDs, threshold, 1, "nonce triples 2")
	maskTriples := runTriples(t, group, pl, partyIDs, threshold, 1, "mask triples 2")

	results := runPresign(t, group, pl, partyIDs, keys, nonceTriples, maskTriples)

	lagrange := partyIDs.LagrangeAll(group)

	k := group.NewScalar()
	sigma := group.NewScalar()
	d := group.NewScalar()
	for _, id := range partyIDs {
		coeff := lagrange[id]
		k = k.Add(coeff.Mul(results[id].K))
		sigma = sigma.Add(coeff.Mul(results[id].Sigma))
		d = d.Add(coeff.Mul(keys[id].PrivateShare))
	}

	R := results[partyIDs[0]].R
	require.True(t, k.Act(R).Equal(basePoint(group)), "k*R does not reconstruct G")
	require.True(t, sigma.Equal(k.Mul(d)), "sigma does not reconstruct k*d")
}

// basePoint returns G via the scalar 1.
func basePoint(group curve.Curve) curve.Point {
	one := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
	return one.ActOnBase()
}
