package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
	"github.com/tecdsa-go/tecdsa/protocols/triples"
)

var (
	triplesLabel     string
	triplesCount     int
	triplesThreshold int

	triplesCmd = &cobra.Command{
		Use:   "generate-triples",
		Short: "Generate a batch of Beaver triples",
		Long:  `Run the batched triple generation protocol across the parties of an existing key share (spec §4.9)`,
		RunE:  runTriplesCmd,
	}
)

func init() {
	triplesCmd.Flags().StringVar(&triplesLabel, "label", "nonce", "Triple batch label (e.g. nonce, mask); used to key the output files and the session")
	triplesCmd.Flags().IntVar(&triplesCount, "count", 1, "Number of triples to generate in this batch")
	triplesCmd.Flags().IntVarP(&triplesThreshold, "threshold", "t", 0, "Signing threshold (required)")
	triplesCmd.MarkFlagRequired("threshold")
}

func runTriplesCmd(cmd *cobra.Command, args []string) error {
	group, err := getCurve(curveName)
	if err != nil {
		return err
	}

	partyIDs, err := discoverKeyShareParties(configDir)
	if err != nil {
		return err
	}

	pl := defaultPool()
	sessionLabel := "triples-" + triplesLabel
	raw, err := runLocal(partyIDs, []byte(sessionLabel), func(id party.ID) protocol.StartFunc {
		return triples.Start(group, pl, id, partyIDs, triplesThreshold, triplesCount)
	})
	if err != nil {
		return fmt.Errorf("triple generation failed: %w", err)
	}

	for _, id := range partyIDs {
		out, ok := raw[id].(triples.Output)
		if !ok {
			return fmt.Errorf("triples: unexpected result type for %s", id)
		}
		file, err := encodeTripleBatch(id, out)
		if err != nil {
			return err
		}
		if err := writeCBOR(tripleShareFilePath(configDir, triplesLabel, id), file); err != nil {
			return fmt.Errorf("write triple batch for %s: %w", id, err)
		}
	}

	fmt.Printf("Generated %d %q triple(s) for %d parties\n", triplesCount, triplesLabel, len(partyIDs))
	fmt.Printf("Triple batch written to: %s (label=%s)\n", configDir, triplesLabel)
	return nil
}
