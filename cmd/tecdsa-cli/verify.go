package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

var (
	verifySigFile   string
	verifyPubKeyHex string
	verifyMessage   string

	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature",
		Long:  `Verify a threshold signature against a public key and message`,
		RunE:  runVerifyCmd,
	}
)

func init() {
	verifyCmd.Flags().StringVar(&verifySigFile, "signature", "", "Signature file (required)")
	verifyCmd.Flags().StringVar(&verifyPubKeyHex, "public-key", "", "Public key, hex encoded (required)")
	verifyCmd.Flags().StringVar(&verifyMessage, "message", "", "Message, hex encoded (required)")
	verifyCmd.MarkFlagRequired("signature")
	verifyCmd.MarkFlagRequired("public-key")
	verifyCmd.MarkFlagRequired("message")
}

func runVerifyCmd(cmd *cobra.Command, args []string) error {
	group, err := getCurve(curveName)
	if err != nil {
		return err
	}

	var file signatureFile
	data, err := os.ReadFile(verifySigFile)
	if err != nil {
		return fmt.Errorf("read signature: %w", err)
	}
	if err := cbor.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	sig, err := file.decode(group)
	if err != nil {
		return err
	}

	pkBytes, err := hex.DecodeString(verifyPubKeyHex)
	if err != nil {
		return fmt.Errorf("decode public key: %w", err)
	}
	publicKey := group.NewPoint()
	if err := publicKey.UnmarshalBinary(pkBytes); err != nil {
		return fmt.Errorf("unmarshal public key: %w", err)
	}

	message, err := hex.DecodeString(verifyMessage)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	messageHash := sha256.Sum256(message)

	if sig.Verify(group, publicKey, messageHash[:]) {
		fmt.Println("Signature is VALID")
		return nil
	}
	fmt.Println("Signature is INVALID")
	return fmt.Errorf("invalid signature")
}
