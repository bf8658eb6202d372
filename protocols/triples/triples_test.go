package triples_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tecdsa-go/tecdsa/internal/test"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
	"github.com/tecdsa-go/tecdsa/protocols/triples"
)

func runTriples(t *testing.T, partyIDs party.IDSlice, threshold, triplesCount int) map[party.ID]*triples.Output {
	t.Helper()
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)

	handlers := make(map[party.ID]*protocol.MultiHandler, len(partyIDs))
	for _, id := range partyIDs {
		h, err := protocol.NewMultiHandler(triples.Start(group, pl, id, partyIDs, threshold, triplesCount), []byte("test session"))
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
			err := test.HandlerLoop(id, h, network)
			require.NoError(t, err)
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

func TestTriplesAgreeOnPublicData(t *testing.T) {
	partyIDs := test.PartyIDs(4)
	threshold := 3
	const triplesCount = 2

	results := runTriples(t, partyIDs, threshold, triplesCount)
	require.Len(t, results, len(partyIDs))

	first := results[partyIDs[0]]
	require.Len(t, first.Public, triplesCount)

	for _, id := range partyIDs {
		out := results[id]
		require.NotNil(t, out)
		require.Len(t, out.Public, triplesCount)
		for k := range first.Public {
			require.True(t, out.Public[k].A.Equal(first.Public[k].A), "party %s disagrees on A for triple %d", id, k)
			require.True(t, out.Public[k].B.Equal(first.Public[k].B), "party %s disagrees on B for triple %d", id, k)
			require.True(t, out.Public[k].C.Equal(first.Public[k].C), "party %s disagrees on C for triple %d", id, k)
		}
	}
}

func TestTriplesSharesReconstructProduct(t *testing.T) {
	group := curve.Secp256k1{}
	partyIDs := test.PartyIDs(4)
	threshold := 3
	const triplesCount = 2

	results := runTriples(t, partyIDs, threshold, triplesCount)

	lagrange := partyIDs.LagrangeAll(group)

	for k := 0; k < triplesCount; k++ {
		a := group.NewScalar()
		b := group.NewScalar()
		c := group.NewScalar()
		for _, id := range partyIDs {
			share := results[id].Shares[k]
			coeff := lagrange[id]
			a = a.Add(coeff.Mul(share.A))
			b = b.Add(coeff.Mul(share.B))
			c = c.Add(coeff.Mul(share.C))
		}

		require.True(t, c.Equal(a.Mul(b)), "triple %d does not satisfy c = a*b", k)

		pub := results[partyIDs[0]].Public[k]
		require.True(t, a.ActOnBase().Equal(pub.A), "triple %d reconstructed a does not match its public commitment", k)
		require.True(t, b.ActOnBase().Equal(pub.B), "triple %d reconstructed b does not match its public commitment", k)
	}
}

func TestTriplesRejectsEmptyBatch(t *testing.T) {
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)
	partyIDs := test.PartyIDs(3)

	_, err := protocol.NewMultiHandler(triples.Start(group, pl, partyIDs[0], partyIDs, 2, 0), []byte("test session"))
	require.Error(t, err)
}
