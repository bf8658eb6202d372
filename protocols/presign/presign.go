package presign

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
	"github.com/tecdsa-go/tecdsa/protocols/keygen"
	"github.com/tecdsa-go/tecdsa/protocols/triples"
)

const protocolID = "cait-sith v0.8.0 presign"

// Start runs the presignature phase: given a key share and two triples
// (the first spent as the nonce triple, the second as the additive mask),
// every participant derives a presignature usable once to sign any message
// (spec §4.10). keyParticipants is the participant subset the key share's
// Shamir polynomial was generated over; it may differ from the triples'
// own participant subset, in which case the two Lagrange coefficients
// used internally differ as well.
func Start(
	group curve.Curve,
	pl *pool.Pool,
	selfID party.ID,
	keyShare keygen.Output,
	keyParticipants party.IDSlice,
	triple0Share triples.TripleShare,
	triple0Pub triples.TriplePub,
	triple1Share triples.TripleShare,
	triple1Pub triples.TriplePub,
) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if len(triple0Pub.Participants) != len(triple1Pub.Participants) {
			return nil, fmt.Errorf("presign: triple participant sets have different sizes")
		}
		for i, id := range triple0Pub.Participants {
			if triple1Pub.Participants[i] != id {
				return nil, fmt.Errorf("presign: triples were generated over different participant sets")
			}
		}
		if !triple0Pub.Participants.Contains(selfID) {
			return nil, fmt.Errorf("presign: self is not a participant of the supplied triples")
		}
		if !keyParticipants.Contains(selfID) {
			return nil, fmt.Errorf("presign: self is not a participant of the key share")
		}

		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: finalRound,
			SelfID:           selfID,
			PartyIDs:         triple0Pub.Participants,
			Threshold:        triple0Pub.Threshold,
			Group:            group,
		}
		helper, err := round.NewSession(info, sessionID, pl)
		if err != nil {
			return nil, err
		}

		return &round1{
			Helper:          helper,
			keyShare:        keyShare,
			keyParticipants: keyParticipants,
			triple0Share:    triple0Share,
			triple0Pub:      triple0Pub,
			triple1Share:    triple1Share,
			triple1Pub:      triple1Pub,
		}, nil
	}
}
