package sign

import (
	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
	"github.com/tecdsa-go/tecdsa/protocols/presign"
)

const protocolID = "cait-sith v0.8.0 sign"

// Start runs the final signing round: given a presignature and a message
// hash, every participant derives its signature share, combines it with
// every peer's, and returns a verified, low-s-normalized ECDSA signature
// (spec §4.11).
func Start(
	group curve.Curve,
	pl *pool.Pool,
	selfID party.ID,
	partyIDs []party.ID,
	threshold int,
	presig presign.Output,
	publicKey curve.Point,
	messageHash []byte,
) protocol.StartFunc {
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
			Helper:      helper,
			presig:      presig,
			publicKey:   publicKey,
			messageHash: messageHash,
		}, nil
	}
}
