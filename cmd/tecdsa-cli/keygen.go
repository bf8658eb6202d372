package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
	"github.com/tecdsa-go/tecdsa/protocols/keygen"
)

var (
	keygenParties   int
	keygenThreshold int
	keygenLabel     string

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Run distributed key generation",
		Long:  `Generate a fresh threshold-shared ECDSA key across a local simulation of N parties (spec §4.3)`,
		RunE:  runKeygenCmd,
	}
)

func init() {
	keygenCmd.Flags().IntVarP(&keygenParties, "parties", "N", 0, "Total number of parties (required)")
	keygenCmd.Flags().IntVarP(&keygenThreshold, "threshold", "t", 0, "Signing threshold (required)")
	keygenCmd.Flags().StringVar(&keygenLabel, "session", "keygen", "Session label")
	keygenCmd.MarkFlagRequired("parties")
	keygenCmd.MarkFlagRequired("threshold")
}

// localPartyIDs builds the canonical 1..n local simulation party set.
func localPartyIDs(n int) (party.IDSlice, error) {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(i + 1)
	}
	return party.NewIDSlice(ids)
}

func runKeygenCmd(cmd *cobra.Command, args []string) error {
	group, err := getCurve(curveName)
	if err != nil {
		return err
	}
	partyIDs, err := localPartyIDs(keygenParties)
	if err != nil {
		return err
	}

	pl := defaultPool()
	raw, err := runLocal(partyIDs, []byte(keygenLabel), func(id party.ID) protocol.StartFunc {
		return keygen.Start(group, pl, id, partyIDs, keygenThreshold)
	})
	if err != nil {
		return fmt.Errorf("keygen failed: %w", err)
	}

	var publicKey []byte
	for _, id := range partyIDs {
		out, ok := raw[id].(keygen.Output)
		if !ok {
			return fmt.Errorf("keygen: unexpected result type for %s", id)
		}
		file, err := encodeKeyShare(id, partyIDs, keygenThreshold, out)
		if err != nil {
			return err
		}
		if err := writeCBOR(keyShareFilePath(configDir, id), file); err != nil {
			return fmt.Errorf("write key share for %s: %w", id, err)
		}
		if publicKey == nil {
			publicKey, _ = out.PublicKey.MarshalBinary()
		}
	}

	fmt.Printf("Key generation complete: %d parties, threshold %d\n", len(partyIDs), keygenThreshold)
	fmt.Printf("Public key: %s\n", hex.EncodeToString(publicKey))
	fmt.Printf("Key shares written to: %s\n", configDir)
	return nil
}
