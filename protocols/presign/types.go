// Package presign implements the presignature phase: given a key share and
// two independently-generated Beaver triples, every participant derives a
// presignature that later lets it finish an ECDSA signature over any
// message with a single round of purely local arithmetic (spec §4.10).
package presign

import (
	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
)

// Output is a presignature: the nonce's public point, plus this party's
// shares of the nonce and of the signature's MtA-corrected cross term
// (spec §3: PresignOutput). Over any qualifying subset,
// Σ λ_p·K = k, Σ λ_p·Σ = k·d, and R = (1/k)·G.
type Output struct {
	R     curve.Point
	K     curve.Scalar
	Sigma curve.Scalar
}

// finalRound is the last waitpoint; its Finalize does no further exchange.
const finalRound round.Number = 3

// broadcast1 carries kd_i, this party's Lagrange-weighted share of the
// nonce triple's c value, produced by round 1 and collected by round 2
// (spec §4.10 step 1, Presign.wait_0).
type broadcast1 struct {
	round.NormalBroadcastContent
	KD []byte
}

func (broadcast1) RoundNumber() round.Number { return 2 }

// broadcast2 carries (ka_i, xb_i), the two additively-masked combinations
// of the nonce and mask triples with the key share, produced by round 2
// and collected by round 3 (spec §4.10 step 2, Presign.wait_1).
type broadcast2 struct {
	round.NormalBroadcastContent
	KA []byte
	XB []byte
}

func (broadcast2) RoundNumber() round.Number { return 3 }
