package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/tecdsa-go/tecdsa/pkg/ecdsa"
	"github.com/tecdsa-go/tecdsa/pkg/math/curve"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/protocols/keygen"
	"github.com/tecdsa-go/tecdsa/protocols/presign"
	"github.com/tecdsa-go/tecdsa/protocols/triples"
)

// Every on-disk artifact this CLI produces is CBOR, matching
// pkg/protocol/handler.go's own wire encoding (spec §6: "config and
// artifact files use the same canonical encoding as the wire protocol").

// keyShareFile is one party's share of a keygen.Output.
type keyShareFile struct {
	PartyID      party.ID   `cbor:"party_id"`
	PartyIDs     []party.ID `cbor:"party_ids"`
	Threshold    int        `cbor:"threshold"`
	PrivateShare []byte     `cbor:"private_share"`
	PublicKey    []byte     `cbor:"public_key"`
}

func encodeKeyShare(id party.ID, partyIDs []party.ID, threshold int, out keygen.Output) (*keyShareFile, error) {
	priv, err := out.PrivateShare.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal private share: %w", err)
	}
	pub, err := out.PublicKey.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return &keyShareFile{
		PartyID:      id,
		PartyIDs:     partyIDs,
		Threshold:    threshold,
		PrivateShare: priv,
		PublicKey:    pub,
	}, nil
}

func (f *keyShareFile) decode(group curve.Curve) (keygen.Output, error) {
	var out keygen.Output
	out.PrivateShare = group.NewScalar()
	if err := out.PrivateShare.UnmarshalBinary(f.PrivateShare); err != nil {
		return out, fmt.Errorf("unmarshal private share: %w", err)
	}
	out.PublicKey = group.NewPoint()
	if err := out.PublicKey.UnmarshalBinary(f.PublicKey); err != nil {
		return out, fmt.Errorf("unmarshal public key: %w", err)
	}
	return out, nil
}

// tripleShareFile is one party's share of a single triples.Output entry
// (spec §3: TripleShare/TriplePub).
type tripleShareFile struct {
	PartyID      party.ID   `cbor:"party_id"`
	Participants []party.ID `cbor:"participants"`
	Threshold    int        `cbor:"threshold"`
	ShareA       []byte     `cbor:"share_a"`
	ShareB       []byte     `cbor:"share_b"`
	ShareC       []byte     `cbor:"share_c"`
	PubA         []byte     `cbor:"pub_a"`
	PubB         []byte     `cbor:"pub_b"`
	PubC         []byte     `cbor:"pub_c"`
}

func encodeTripleShare(id party.ID, share triples.TripleShare, pub triples.TriplePub) (*tripleShareFile, error) {
	aB, err := share.A.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal share A: %w", err)
	}
	bB, err := share.B.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal share B: %w", err)
	}
	cB, err := share.C.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal share C: %w", err)
	}
	pubA, err := pub.A.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal pub A: %w", err)
	}
	pubB, err := pub.B.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal pub B: %w", err)
	}
	pubC, err := pub.C.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal pub C: %w", err)
	}
	return &tripleShareFile{
		PartyID:      id,
		Participants: pub.Participants,
		Threshold:    pub.Threshold,
		ShareA:       aB,
		ShareB:       bB,
		ShareC:       cB,
		PubA:         pubA,
		PubB:         pubB,
		PubC:         pubC,
	}, nil
}

func (f *tripleShareFile) decode(group curve.Curve) (triples.TripleShare, triples.TriplePub, error) {
	var share triples.TripleShare
	var pub triples.TriplePub

	share.A = group.NewScalar()
	if err := share.A.UnmarshalBinary(f.ShareA); err != nil {
		return share, pub, fmt.Errorf("unmarshal share A: %w", err)
	}
	share.B = group.NewScalar()
	if err := share.B.UnmarshalBinary(f.ShareB); err != nil {
		return share, pub, fmt.Errorf("unmarshal share B: %w", err)
	}
	share.C = group.NewScalar()
	if err := share.C.UnmarshalBinary(f.ShareC); err != nil {
		return share, pub, fmt.Errorf("unmarshal share C: %w", err)
	}

	pub.A = group.NewPoint()
	if err := pub.A.UnmarshalBinary(f.PubA); err != nil {
		return share, pub, fmt.Errorf("unmarshal pub A: %w", err)
	}
	pub.B = group.NewPoint()
	if err := pub.B.UnmarshalBinary(f.PubB); err != nil {
		return share, pub, fmt.Errorf("unmarshal pub B: %w", err)
	}
	pub.C = group.NewPoint()
	if err := pub.C.UnmarshalBinary(f.PubC); err != nil {
		return share, pub, fmt.Errorf("unmarshal pub C: %w", err)
	}
	pub.Participants = f.Participants
	pub.Threshold = f.Threshold

	return share, pub, nil
}

// tripleBatchFile is one party's share of an entire triples.Output batch.
type tripleBatchFile struct {
	PartyID party.ID          `cbor:"party_id"`
	Entries []tripleShareFile `cbor:"entries"`
}

func encodeTripleBatch(id party.ID, out triples.Output) (*tripleBatchFile, error) {
	entries := make([]tripleShareFile, len(out.Shares))
	for i := range out.Shares {
		entry, err := encodeTripleShare(id, out.Shares[i], out.Public[i])
		if err != nil {
			return nil, fmt.Errorf("triple %d: %w", i, err)
		}
		entries[i] = *entry
	}
	return &tripleBatchFile{PartyID: id, Entries: entries}, nil
}

func (f *tripleBatchFile) decode(group curve.Curve) (triples.Output, error) {
	var out triples.Output
	out.Shares = make([]triples.TripleShare, len(f.Entries))
	out.Public = make([]triples.TriplePub, len(f.Entries))
	for i := range f.Entries {
		share, pub, err := f.Entries[i].decode(group)
		if err != nil {
			return out, fmt.Errorf("triple %d: %w", i, err)
		}
		out.Shares[i] = share
		out.Public[i] = pub
	}
	return out, nil
}

// presignShareFile is one party's presign.Output.
type presignShareFile struct {
	PartyID party.ID `cbor:"party_id"`
	R       []byte   `cbor:"r"`
	K       []byte   `cbor:"k"`
	Sigma   []byte   `cbor:"sigma"`
}

func encodePresignShare(id party.ID, out presign.Output) (*presignShareFile, error) {
	rB, err := out.R.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal R: %w", err)
	}
	kB, err := out.K.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal k: %w", err)
	}
	sB, err := out.Sigma.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal sigma: %w", err)
	}
	return &presignShareFile{PartyID: id, R: rB, K: kB, Sigma: sB}, nil
}

func (f *presignShareFile) decode(group curve.Curve) (presign.Output, error) {
	var out presign.Output
	out.R = group.NewPoint()
	if err := out.R.UnmarshalBinary(f.R); err != nil {
		return out, fmt.Errorf("unmarshal R: %w", err)
	}
	out.K = group.NewScalar()
	if err := out.K.UnmarshalBinary(f.K); err != nil {
		return out, fmt.Errorf("unmarshal k: %w", err)
	}
	out.Sigma = group.NewScalar()
	if err := out.Sigma.UnmarshalBinary(f.Sigma); err != nil {
		return out, fmt.Errorf("unmarshal sigma: %w", err)
	}
	return out, nil
}

// signatureFile is a finalized, combined ecdsa.Signature.
type signatureFile struct {
	R          []byte `cbor:"r"`
	S          []byte `cbor:"s"`
	WasFlipped bool   `cbor:"was_flipped"`
}

func encodeSignature(sig *ecdsa.Signature) (*signatureFile, error) {
	rB, err := sig.R.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal R: %w", err)
	}
	sB, err := sig.S.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal S: %w", err)
	}
	return &signatureFile{R: rB, S: sB, WasFlipped: sig.WasFlipped}, nil
}

func (f *signatureFile) decode(group curve.Curve) (*ecdsa.Signature, error) {
	r := group.NewPoint()
	if err := r.UnmarshalBinary(f.R); err != nil {
		return nil, fmt.Errorf("unmarshal R: %w", err)
	}
	s := group.NewScalar()
	if err := s.UnmarshalBinary(f.S); err != nil {
		return nil, fmt.Errorf("unmarshal S: %w", err)
	}
	return &ecdsa.Signature{R: r, S: s, WasFlipped: f.WasFlipped}, nil
}

func writeCBOR(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func readCBOR(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return cbor.Unmarshal(data, v)
}

func keyShareFilePath(dir string, id party.ID) string {
	return filepath.Join(dir, fmt.Sprintf("keyshare-%s.cbor", id))
}

func tripleShareFilePath(dir, label string, id party.ID) string {
	return filepath.Join(dir, fmt.Sprintf("triples-%s-%s.cbor", label, id))
}

func presignShareFilePath(dir string, id party.ID) string {
	return filepath.Join(dir, fmt.Sprintf("presign-%s.cbor", id))
}

// discoverKeyShareParties scans dir for keyshare-*.cbor files and returns
// the participant set recorded in the first one found. Every key share
// file carries the full participant list it was generated against
// (keyShareFile.PartyIDs), so any single file is authoritative.
func discoverKeyShareParties(dir string) (party.IDSlice, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "keyshare-*.cbor"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no key shares found in %s; run keygen first", dir)
	}
	var first keyShareFile
	if err := readCBOR(matches[0], &first); err != nil {
		return nil, err
	}
	return party.NewIDSlice(first.PartyIDs)
}

// loadAllKeyShares reads every party's key share file for the given
// participant set.
func loadAllKeyShares(dir string, group curve.Curve, partyIDs party.IDSlice) (map[party.ID]keygen.Output, int, error) {
	out := make(map[party.ID]keygen.Output, len(partyIDs))
	threshold := 0
	for _, id := range partyIDs {
		var file keyShareFile
		if err := readCBOR(keyShareFilePath(dir, id), &file); err != nil {
			return nil, 0, err
		}
		decoded, err := file.decode(group)
		if err != nil {
			return nil, 0, fmt.Errorf("decode key share for %s: %w", id, err)
		}
		out[id] = decoded
		threshold = file.Threshold
	}
	return out, threshold, nil
}

// loadTripleBatch reads every party's triple batch file for the given
// label and participant set.
func loadTripleBatch(dir, label string, group curve.Curve, partyIDs party.IDSlice) (map[party.ID]triples.Output, error) {
	out := make(map[party.ID]triples.Output, len(partyIDs))
	for _, id := range partyIDs {
		var file tripleBatchFile
		if err := readCBOR(tripleShareFilePath(dir, label, id), &file); err != nil {
			return nil, err
		}
		decoded, err := file.decode(group)
		if err != nil {
			return nil, fmt.Errorf("decode %s triple batch for %s: %w", label, id, err)
		}
		out[id] = decoded
	}
	return out, nil
}

// loadPresignShares reads every party's presignature share file.
func loadPresignShares(dir string, group curve.Curve, partyIDs party.IDSlice) (map[party.ID]presign.Output, error) {
	out := make(map[party.ID]presign.Output, len(partyIDs))
	for _, id := range partyIDs {
		var file presignShareFile
		if err := readCBOR(presignShareFilePath(dir, id), &file); err != nil {
			return nil, err
		}
		decoded, err := file.decode(group)
		if err != nil {
			return nil, fmt.Errorf("decode presignature for %s: %w", id, err)
		}
		out[id] = decoded
	}
	return out, nil
}
