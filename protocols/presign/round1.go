package presign

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/protocols/keygen"
	"github.com/tecdsa-go/tecdsa/protocols/triples"
)

// round1 is the genesis round: it computes every local Lagrange-weighted
// quantity and broadcasts kd_i, never waiting on anything (spec §4.10
// step 1).
type round1 struct {
	*round.Helper

	keyShare        keygen.Output
	keyParticipants party.IDSlice
	triple0Share    triples.TripleShare
	triple0Pub      triples.TriplePub
	triple1Share    triples.TripleShare
	triple1Pub      triples.TriplePub

	// lambda is this party's Lagrange coefficient over the triples'
	// participant subset; lambdaSK is the coefficient over the key
	// share's participant subset. The two subsets need not coincide, so
	// the spec keeps them distinct (§4.10 step 1).
	lambda   curve.Scalar
	lambdaSK curve.Scalar

	kPrime curve.Scalar // lambda * k_i  (triple0's a-share, used as the nonce)
	aPrime curve.Scalar // lambda * a_i  (triple1's a-share)
	bPrime curve.Scalar // lambda * b_i  (triple1's b-share)
	xPrime curve.Scalar // lambdaSK * d_i (key share)

	kd curve.Scalar // lambda * c_i (triple0's c-share); what gets broadcast
}

func (r *round1) Number() round.Number                     { return 1 }
func (r *round1) MessageContent() round.Content            { return nil }
func (r *round1) BroadcastContent() round.BroadcastContent { return nil }
func (r *round1) StoreBroadcastMessage(round.Message) error { return nil }
func (r *round1) VerifyMessage(round.Message) error         { return nil }
func (r *round1) StoreMessage(round.Message) error          { return nil }

// Finalize computes this party's Lagrange-weighted local quantities and
// broadcasts kd_i (spec §4.10 step 1).
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	self := r.SelfID()

	r.lambda = r.triple0Pub.Participants.Lagrange(group, self)
	r.lambdaSK = r.keyParticipants.Lagrange(group, self)

	r.kPrime = r.lambda.Mul(r.triple0Share.A)
	r.aPrime = r.lambda.Mul(r.triple1Share.A)
	r.bPrime = r.lambda.Mul(r.triple1Share.B)
	r.xPrime = r.lambdaSK.Mul(r.keyShare.PrivateShare)
	r.kd = r.lambda.Mul(r.triple0Share.C)

	kdBytes, err := r.kd.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("presign: failed to marshal kd share: %w", err)
	}

	if err := r.BroadcastMessage(out, &broadcast1{KD: kdBytes}); err != nil {
		return nil, err
	}

	return &round2{round1: r, kdSum: r.kd}, nil
}
