package triples

import (
	"crypto/rand"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
)

const protocolID = "cait-sith v0.8.0 triple generation"

// Start runs a batch triple generation: every party ends up with a
// Shamir share of each of triplesCount random (a, b, c) triples, with
// c = a*b, produced without ever reconstructing a, b or c anywhere (spec
// §4.9). The whole batch shares one round-trip per cascade step.
func Start(group curve.Curve, pl *pool.Pool, selfID party.ID, partyIDs []party.ID, threshold, triplesCount int) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if err := validateTriplesCount(triplesCount); err != nil {
			return nil, err
		}

		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: finalRound,
			SelfID:           selfID,
			PartyIDs:         partyIDs,
			Threshold:        threshold,
			Group:            group,
		}
		helper, err := round.NewSession(info, sessionID, pl)
		if err != nil {
			return nil, err
		}

		return &round1{
			Helper:       helper,
			rng:          rand.Reader,
			triplesCount: triplesCount,
		}, nil
	}
}
