package triples

import (
	"github.com/tecdsa-go/tecdsa/pkg/bitops"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/protocols/mta"
	"github.com/tecdsa-go/tecdsa/protocols/ot/baseot"
	"github.com/tecdsa-go/tecdsa/protocols/ot/rot"
)

// mtaPairState is one triple's pair of sender-side MtA states for a given
// peer: one per cross term (spec §4.9 step 7: "run the MtA twice").
type mtaPairState struct {
	stateA, stateB *mta.SenderState
}

// peerOT is the transient state of the OT/MtA cascade run against a single
// peer. Exactly one half is ever populated, depending on role: self plays
// receiver toward peer when self < peer, sender when self > peer (spec
// §4.9 step 6: the larger-id party of a pair plays the base-OT sender).
type peerOT struct {
	// receiver-role fields.
	recvState *baseot.ReceiverState
	choiceB   bitops.ChoiceVector
	recvOut   *rot.ReceiverOutput
	pendingU  *bitops.BitMatrix
	toSend5   []tripleChiSeed

	// sender-role fields.
	delta     bitops.BitVector
	senderK   *bitops.SquareBitMatrix
	seed      rot.Seed
	toSendX   []curve.Point
	senderOut *rot.SenderOutput
	mtaStates []mtaPairState
	toSend4   []tripleCipher
}

// batchSizePerTriple is the number of random-OT rows each triple consumes
// per direction, matching the original implementation's "C::BITS +
// SECURITY_PARAMETER" (spec §4.9: "parameterized by triples_count so
// batches share one round-trip per step").
func batchSizePerTriple(group curve.Curve) int {
	return group.ScalarBits() + bitops.Kappa
}
