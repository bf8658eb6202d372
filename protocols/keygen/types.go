// Package keygen implements the Pedersen-VSS distributed key generation
// protocol: every participant ends up holding an additive Shamir share of a
// fresh ECDSA private key, with nobody having ever seen the key itself
// (spec §4.3).
package keygen

import (
	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/commitment"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
)

// Output is the per-party result of a completed run: a Shamir share of the
// fresh private key, plus the key's public point (spec §3: KeygenOutput).
type Output struct {
	PrivateShare curve.Scalar
	PublicKey    curve.Point
}

// finalRound is the last waitpoint number of this protocol; round 1 never
// expects inbound messages, so the protocol has 4 genuine waitpoints
// (2 through 5) after it.
const finalRound round.Number = 5

// broadcast1 carries C_i, the commitment to this party's polynomial
// commitment, produced by round 1 and collected by round 2 (spec §4.3 step
// 1, DKG.wait_0).
type broadcast1 struct {
	round.NormalBroadcastContent
	C commitment.Commitment
}

func (broadcast1) RoundNumber() round.Number { return 2 }

// broadcast2 carries d, the confirmation digest over every C_j, produced by
// round 2 and collected by round 3 (spec §4.3 step 2, DKG.wait_1).
type broadcast2 struct {
	round.NormalBroadcastContent
	D commitment.Digest
}

func (broadcast2) RoundNumber() round.Number { return 3 }

// broadcast3 opens the commitment and proves knowledge of f(0), produced by
// round 3 and collected by round 4 (spec §4.3 step 3, DKG.wait_2).
type broadcast3 struct {
	round.NormalBroadcastContent
	F      [][]byte // coefficient-wise compressed points of F_i
	R      commitment.Randomizer
	ProofK []byte
	ProofZ []byte
}

func (broadcast3) RoundNumber() round.Number { return 4 }

// message4 privately carries this party's share of the peer's polynomial,
// produced by round 4 and collected by round 5 (spec §4.3 step 4,
// DKG.wait_3).
type message4 struct {
	X []byte // scalar bytes of f(pi(p))
}

func (message4) RoundNumber() round.Number { return 5 }
