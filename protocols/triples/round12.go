package triples

import (
	"fmt"

	"github.com/tecdsa-go/tecdsa/internal/round"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/zk/dlog"
)

// round12 is the last waitpoint: it collects every peer's recomputed
// Chat and private l-shares, checks both against the values accumulated
// since round 6, and emits every triple's share and public data (spec
// §4.9 step 8).
type round12 struct {
	*round11

	chatSum []curve.Point
	cSum    []curve.Scalar
}

func (r *round12) Number() round.Number                     { return finalRound }
func (r *round12) MessageContent() round.Content            { return &messageFinal{} }
func (r *round12) BroadcastContent() round.BroadcastContent { return &broadcastFinal{} }
func (r *round12) VerifyMessage(round.Message) error        { return nil }

// StoreBroadcastMessage verifies a peer's recomputed Chat proof for every
// triple and accumulates it into the running sum (spec §4.9 step 8).
func (r *round12) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcastFinal)
	if !ok {
		return round.ErrInvalidContent
	}
	if len(body.Triples) != r.triplesCount {
		return fmt.Errorf("triples: final batch from %s has wrong length %d, want %d", msg.From, len(body.Triples), r.triplesCount)
	}

	group := r.Group()
	if r.chatSum == nil {
		r.chatSum = make([]curve.Point, r.triplesCount)
	}

	for k, tf := range body.Triples {
		Chat := group.NewPoint()
		if err := Chat.UnmarshalBinary(tf.Chat); err != nil {
			return fmt.Errorf("triples: failed to unmarshal Chat from %s on triple %d: %w", msg.From, k, err)
		}
		proof, err := dlog.FromBytes(group, tf.ProofK, tf.ProofZ)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal Chat proof from %s on triple %d: %w", msg.From, k, err)
		}
		fork := r.Hash().Fork("dlog2", idTripleBytes(msg.From, k))
		if !proof.Verify(fork, group, Chat) {
			return fmt.Errorf("triples: Chat proof failed for %s on triple %d", msg.From, k)
		}

		if r.chatSum[k] == nil {
			r.chatSum[k] = Chat
		} else {
			r.chatSum[k] = r.chatSum[k].Add(Chat)
		}
	}

	return nil
}

// StoreMessage accumulates a peer's private l-share for every triple.
func (r *round12) StoreMessage(msg round.Message) error {
	body, ok := msg.Content.(*messageFinal)
	if !ok {
		return round.ErrInvalidContent
	}
	if len(body.C) != r.triplesCount {
		return fmt.Errorf("triples: l-share batch from %s has wrong length %d, want %d", msg.From, len(body.C), r.triplesCount)
	}

	group := r.Group()
	if r.cSum == nil {
		r.cSum = make([]curve.Scalar, r.triplesCount)
		for k := range r.cSum {
			r.cSum[k] = group.NewScalar()
		}
	}

	for k, raw := range body.C {
		share, err := unmarshalScalar(group, raw)
		if err != nil {
			return fmt.Errorf("triples: failed to unmarshal l-share from %s on triple %d: %w", msg.From, k, err)
		}
		r.cSum[k] = r.cSum[k].Add(share)
	}

	return nil
}

// Finalize installs the recomputed Chat sum as L's constant term, checks
// it against the commitment accumulated in round 6, checks the
// accumulated l-shares against L evaluated at this party's own id, and
// emits every triple's share and public data (spec §4.9 step 8).
func (r *round12) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	selfScalar := r.SelfID().Scalar(group)

	if r.cSum == nil {
		r.cSum = make([]curve.Scalar, r.triplesCount)
		for k := range r.cSum {
			r.cSum[k] = group.NewScalar()
		}
	}

	shares := make([]TripleShare, r.triplesCount)
	pubs := make([]TriplePub, r.triplesCount)

	for k := 0; k < r.triplesCount; k++ {
		own, err := unmarshalScalar(group, r.ownC[k])
		if err != nil {
			return nil, fmt.Errorf("triples: failed to unmarshal own l-share on triple %d: %w", k, err)
		}
		cShare := r.cSum[k].Add(own)

		r.accL[k].SetZero(r.chatSum[k])
		if !r.accL[k].EvaluateZero().Equal(r.Csum[k]) {
			return nil, fmt.Errorf("triples: recomputed Chat does not match cross commitment on triple %d", k)
		}
		if !r.accL[k].Evaluate(selfScalar).Equal(cShare.ActOnBase()) {
			return nil, fmt.Errorf("triples: l-share check failed on triple %d", k)
		}

		shares[k] = TripleShare{A: r.accA[k], B: r.accB[k], C: cShare}
		pubs[k] = TriplePub{
			A:            r.accE[k].EvaluateZero(),
			B:            r.accF[k].EvaluateZero(),
			C:            r.Csum[k],
			Participants: r.PartyIDs(),
			Threshold:    r.Threshold(),
		}
	}

	return r.ResultRound(Output{Shares: shares, Public: pubs}), nil
}
