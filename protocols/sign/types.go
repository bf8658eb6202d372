// Package sign implements the final signing round: given a presignature
// and a message hash, every participant derives its share of the ECDSA
// signature scalar entirely locally, one broadcast combines them, and
// every party verifies the assembled signature before returning it (spec
// §4.11).
package sign

import (
	"github.com/tecdsa-go/tecdsa/internal/round"
)

// finalRound is the last waitpoint; its Finalize does no further exchange.
const finalRound round.Number = 2

// broadcast1 carries s_i, this party's Lagrange-weighted share of the
// signature scalar, produced by round 1 and collected by round 2 (spec
// §4.11 step 1, Sign.wait_0).
type broadcast1 struct {
	round.NormalBroadcastContent
	S []byte
}

func (broadcast1) RoundNumber() round.Number { return 2 }
