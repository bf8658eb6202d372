package keygen

import (
	"crypto/rand"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
)

const protocolID = "cait-sith v0.8.0 keygen"

// Start runs a fresh distributed key generation: every party ends up with
// a Shamir share of a new private key and nobody ever holds the key itself
// (spec §4.3).
func Start(group curve.Curve, pl *pool.Pool, selfID party.ID, partyIDs []party.ID, threshold int) protocol.StartFunc {
	return start(group, pl, selfID, partyIDs, threshold, nil)
}

// Reshare re-randomizes an existing key's shares, possibly across a
// different participant set and threshold, while preserving the public key
// (spec §4.3 step 5: "on reshare, F(0) must equal the previous public
// key").
func Reshare(group curve.Curve, pl *pool.Pool, selfID party.ID, partyIDs []party.ID, threshold int, prevPublicKey curve.Point) protocol.StartFunc {
	return start(group, pl, selfID, partyIDs, threshold, prevPublicKey)
}

func start(group curve.Curve, pl *pool.Pool, selfID party.ID, partyIDs []party.ID, threshold int, prevPublicKey curve.Point) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
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
			Helper:        helper,
			rng:           rand.Reader,
			prevPublicKey: prevPublicKey,
		}, nil
	}
}
