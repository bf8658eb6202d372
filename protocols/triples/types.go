// Package triples implements distributed Beaver triple generation: every
// participant ends up with a Shamir share of a random (a, b, c) with
// c = a*b, produced without ever reconstructing a, b or c anywhere (spec
// §4.9). It composes the OT cascade (pkg/bitops, protocols/ot/baseot,
// protocols/ot/cot, protocols/ot/rot) and protocols/mta over a batch of
// triples so the whole batch shares one round-trip per cascade step.
package triples

import (
	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/commitment"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
)

// TripleShare is one party's Shamir share of a single triple: the summed
// e, f and l polynomials evaluated at its own id.
type TripleShare struct {
	A, B, C curve.Scalar
}

// TriplePub is the public data of a single triple: the two random points
// and their product, plus the participant set that generated it (spec §3:
// TriplePub).
type TriplePub struct {
	A, B, C      curve.Point
	Participants party.IDSlice
	Threshold    int
}

// Output is the per-party result of a completed batch run.
type Output struct {
	Shares []TripleShare
	Public []TriplePub
}

// finalRound is the last waitpoint of this protocol.
const finalRound round.Number = 12

// broadcast1 carries every triple's joint commitment to (E_i, F_i, L_i),
// produced by round 1 and collected by round 2 (spec §4.9 step 1).
type broadcast1 struct {
	round.NormalBroadcastContent
	Cs []commitment.Commitment
}

func (broadcast1) RoundNumber() round.Number { return 2 }

// broadcast2 carries the per-triple confirmation digests over every C_j,
// produced by round 2 and collected by round 3 (spec §4.9 step 2).
type broadcast2 struct {
	round.NormalBroadcastContent
	Ds []commitment.Digest
}

func (broadcast2) RoundNumber() round.Number { return 3 }

// tripleOpening opens one triple's joint commitment and proves knowledge of
// e(0), f(0).
type tripleOpening struct {
	E, F, L [][]byte
	R       commitment.Randomizer
	ProofEK, ProofEZ []byte
	ProofFK, ProofFZ []byte
}

// broadcast3 opens every triple's commitment, produced by round 3 and
// collected by round 4 (spec §4.9 step 3).
type broadcast3 struct {
	round.NormalBroadcastContent
	Openings []tripleOpening
}

func (broadcast3) RoundNumber() round.Number { return 4 }

// tripleShare is one triple's private (e(p), f(p)) pair sent to a peer.
type tripleShare struct {
	E, F []byte
}

// message4 privately carries every triple's share of the peer's
// polynomials, produced by round 4 and collected by round 5 (spec §4.9
// step 4).
type message4 struct {
	Shares []tripleShare
}

func (message4) RoundNumber() round.Number { return 5 }

// tripleCommit carries one triple's MtA-free cross commitment and the
// dlog-eq proof binding it to e(0).
type tripleCommit struct {
	C                []byte
	ProofK1, ProofK2, ProofZ []byte
}

// broadcast5 carries every triple's cross commitment, produced by round 5
// and collected by round 6 (spec §4.9 step 5).
type broadcast5 struct {
	round.NormalBroadcastContent
	Commits []tripleCommit
}

func (broadcast5) RoundNumber() round.Number { return 6 }

// otMsg1 carries the batch-random-OT receiver points Y, sent only in the
// direction where the sender of this message is the smaller-id party of
// the pair; otherwise empty (spec §4.5, cascade stage 1). Every round in
// the cascade uses this same shape: every party sends every peer a
// message every round, with a nil/empty payload standing in for "nothing
// to say yet" on the half of the pair whose turn hasn't come.
type otMsg1 struct {
	Y [][]byte
}

func (otMsg1) RoundNumber() round.Number { return 7 }

// otMsg2 carries the batch base-OT reply X together with the random-OT
// seed, sent only sender-to-receiver (cascade stage 2).
type otMsg2 struct {
	X    [][]byte
	Seed []byte
}

func (otMsg2) RoundNumber() round.Number { return 8 }

// otMsg3 carries the correlated-OT correction matrix and the random-OT
// consistency digest, sent only receiver-to-sender (cascade stage 3).
type otMsg3 struct {
	U      [][]byte
	SmallX []byte
	SmallT [][]byte
}

func (otMsg3) RoundNumber() round.Number { return 9 }

// tripleCipher is one triple's pair of MtA ciphertexts, one per cross term.
type tripleCipher struct {
	C0A, C1A []byte
	C0B, C1B []byte
}

// otMsg4 carries every triple's MtA ciphertexts, sent only sender-to-
// receiver (cascade stage 4).
type otMsg4 struct {
	Ciphertexts []tripleCipher
}

func (otMsg4) RoundNumber() round.Number { return 10 }

// tripleChiSeed is one triple's pair of MtA consistency combiners, one per
// cross term.
type tripleChiSeed struct {
	Chi0A, SeedA []byte
	Chi0B, SeedB []byte
}

// otMsg5 carries every triple's MtA consistency combiners, sent only
// receiver-to-sender (cascade stage 5, the cascade's last exchange).
type otMsg5 struct {
	Shares []tripleChiSeed
}

func (otMsg5) RoundNumber() round.Number { return 11 }

// tripleFinal carries one triple's recomputed constant-term commitment and
// the proof binding it to this party's local l(0).
type tripleFinal struct {
	Chat   []byte
	ProofK []byte
	ProofZ []byte
}

// broadcastFinal carries every triple's Chat, produced by round 11 and
// collected by round 12 (spec §4.9 step 8).
type broadcastFinal struct {
	round.NormalBroadcastContent
	Triples []tripleFinal
}

func (broadcastFinal) RoundNumber() round.Number { return 12 }

// messageFinal privately carries every triple's share of l(p), produced by
// round 11 and collected by round 12 (spec §4.9 step 7 tail).
type messageFinal struct {
	C [][]byte
}

func (messageFinal) RoundNumber() round.Number { return 12 }
