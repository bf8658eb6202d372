package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
	"github.com/tecdsa-go/tecdsa/protocols/presign"
)

var (
	presignNonceLabel string
	presignMaskLabel  string
	presignIndex      int
	presignSession    string

	presignCmd = &cobra.Command{
		Use:   "presign",
		Short: "Derive a presignature from a nonce triple and a mask triple",
		Long:  `Combine one nonce triple and one mask triple into a reusable presignature (spec §4.10)`,
		RunE:  runPresignCmd,
	}
)

func init() {
	presignCmd.Flags().StringVar(&presignNonceLabel, "nonce-label", "nonce", "Label of the triple batch to use as the nonce triple")
	presignCmd.Flags().StringVar(&presignMaskLabel, "mask-label", "mask", "Label of the triple batch to use as the mask triple")
	presignCmd.Flags().IntVar(&presignIndex, "index", 0, "Index within each triple batch to consume")
	presignCmd.Flags().StringVar(&presignSession, "session", "presign", "Session label")
}

func runPresignCmd(cmd *cobra.Command, args []string) error {
	group, err := getCurve(curveName)
	if err != nil {
		return err
	}

	partyIDs, err := discoverKeyShareParties(configDir)
	if err != nil {
		return err
	}
	keys, _, err := loadAllKeyShares(configDir, group, partyIDs)
	if err != nil {
		return err
	}
	nonceTriples, err := loadTripleBatch(configDir, presignNonceLabel, group, partyIDs)
	if err != nil {
		return fmt.Errorf("load nonce triples: %w", err)
	}
	maskTriples, err := loadTripleBatch(configDir, presignMaskLabel, group, partyIDs)
	if err != nil {
		return fmt.Errorf("load mask triples: %w", err)
	}

	pl := defaultPool()
	raw, err := runLocal(partyIDs, []byte(presignSession), func(id party.ID) protocol.StartFunc {
		nonce := nonceTriples[id]
		mask := maskTriples[id]
		return presign.Start(
			group, pl, id,
			keys[id], partyIDs,
			nonce.Shares[presignIndex], nonce.Public[presignIndex],
			mask.Shares[presignIndex], mask.Public[presignIndex],
		)
	})
	if err != nil {
		return fmt.Errorf("presign failed: %w", err)
	}

	for _, id := range partyIDs {
		out, ok := raw[id].(presign.Output)
		if !ok {
			return fmt.Errorf("presign: unexpected result type for %s", id)
		}
		file, err := encodePresignShare(id, out)
		if err != nil {
			return err
		}
		if err := writeCBOR(presignShareFilePath(configDir, id), file); err != nil {
			return fmt.Errorf("write presignature for %s: %w", id, err)
		}
	}

	fmt.Printf("Presignature derived for %d parties (nonce=%s[%d], mask=%s[%d])\n",
		len(partyIDs), presignNonceLabel, presignIndex, presignMaskLabel, presignIndex)
	fmt.Printf("Presignature shares written to: %s\n", configDir)
	return nil
}
