package keygen

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/math/polynomial"
	"github.com/tecdsa-go/tecdsa/pkg/math/sample"
	"github.com/tecdsa-go/tecdsa/pkg/party"
)

// CentralizedOutput is the result of a dealer-run keygen: the raw private
// key (for tests that need to check a signature against it directly) plus
// every party's share.
type CentralizedOutput struct {
	PrivateKey curve.Scalar
	Shares     map[party.ID]Output
}

// Centralized has a single dealer sample a polynomial and hand out shares
// directly, skipping the distributed commit-reveal protocol entirely. It
// exists for test fixtures, never for production signing keys (spec §4.3:
// "(added, test-only)").
func Centralized(group curve.Curve, partyIDs []party.ID, threshold int) (*CentralizedOutput, error) {
	return centralized(rand.Reader, group, partyIDs, threshold)
}

func centralized(rng io.Reader, group curve.Curve, partyIDs []party.ID, threshold int) (*CentralizedOutput, error) {
	if threshold < 2 {
		return nil, fmt.Errorf("keygen: threshold must be at least 2, got %d", threshold)
	}
	ids, err := party.NewIDSlice(partyIDs)
	if err != nil {
		return nil, fmt.Errorf("keygen: %w", err)
	}

	f := polynomial.ExtendRandom(rng, group, threshold, sample.Scalar(rng, group))
	publicKey := f.EvaluateZero().ActOnBase()

	shares := make(map[party.ID]Output, len(ids))
	for _, id := range ids {
		shares[id] = Output{
			PrivateShare: f.Evaluate(id.Scalar(group)),
			PublicKey:    publicKey,
		}
	}

	return &CentralizedOutput{PrivateKey: f.EvaluateZero(), Shares: shares}, nil
}

// CombineShares reconstructs the private key from a qualifying subset of
// private shares via Lagrange interpolation at x=0 (spec §4.3: "(added)
// reconstruction helper for test fixtures").
func CombineShares(group curve.Curve, shares map[party.ID]curve.Scalar) (curve.Scalar, error) {
	if len(shares) < 2 {
		return nil, fmt.Errorf("keygen: need at least 2 shares to reconstruct, got %d", len(shares))
	}
	ids := make([]party.ID, 0, len(shares))
	for id := range shares {
		ids = append(ids, id)
	}
	idSlice, err := party.NewIDSlice(ids)
	if err != nil {
		return nil, fmt.Errorf("keygen: %w", err)
	}

	result := group.NewScalar()
	for id, share := range shares {
		lambda := idSlice.Lagrange(group, id)
		result = result.Add(lambda.Mul(share))
	}
	return result, nil
}
