package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamscao/certstamp/internal/qrcode"
	"github.com/adamscao/certstamp/internal/signature"
)

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Write a QR code PNG",
	Long:  "Writes the QR code for --payload, or for the reference of --holder and --cert",
	RunE:  writeQR,
}

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Print the reference and today's signature line of a certificate",
	Long:  "Prints the reference and signature line for --holder and --cert, or for the identifiers parsed from --url",
	RunE:  printReference,
}

var (
	qrPayload string
	qrOut     string
	refHolder string
	refCert   string
	refDate   string
	refURL    string
)

func init() {
	qrCmd.Flags().StringVarP(&qrPayload, "payload", "p", "", "Text to encode")
	qrCmd.Flags().StringVar(&refHolder, "holder", "", "Holder ID")
	qrCmd.Flags().StringVar(&refCert, "cert", "", "Certificate ID")
	qrCmd.Flags().StringVarP(&qrOut, "out", "o", "qr.png", "Output PNG path")

	referenceCmd.Flags().StringVar(&refHolder, "holder", "", "Holder ID")
	referenceCmd.Flags().StringVar(&refCert, "cert", "", "Certificate ID")
	referenceCmd.Flags().StringVar(&refURL, "url", "", "Scanned verification URL")
	referenceCmd.Flags().StringVar(&refDate, "date", "", "Sign date as DD-MM-YYYY (defaults to today)")
	referenceCmd.MarkFlagsMutuallyExclusive("url", "holder")
	referenceCmd.MarkFlagsMutuallyExclusive("url", "cert")
}

func writeQR(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	payload := qrPayload
	if payload == "" {
		if refHolder == "" || refCert == "" {
			return fmt.Errorf("either --payload or both --holder and --cert must be provided")
		}
		ref, err := signature.BuildReference(cfg.Server.BaseURL, refHolder, refCert)
		if err != nil {
			return err
		}
		payload = ref
	}

	enc, err := qrcode.FromConfig(cfg.QR)
	if err != nil {
		return err
	}

	data, err := enc.Encode(payload)
	if err != nil {
		return fmt.Errorf("failed to encode qr code: %w", err)
	}

	if err := os.WriteFile(qrOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", qrOut, err)
	}

	fmt.Printf("Wrote %s (%s)\n", qrOut, payload)
	return nil
}

func printReference(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if refURL != "" {
		var err error
		refHolder, refCert, err = signature.ParseReference(refURL)
		if err != nil {
			return err
		}
	}
	if refHolder == "" || refCert == "" {
		return fmt.Errorf("either --url or both --holder and --cert must be provided")
	}

	ref, err := signature.BuildReference(cfg.Server.BaseURL, refHolder, refCert)
	if err != nil {
		return err
	}

	date := refDate
	if date == "" {
		date = signature.DateString(time.Now())
	} else if _, err := time.Parse(signature.DateLayout, date); err != nil {
		return fmt.Errorf("invalid --date %q, want DD-MM-YYYY", date)
	}

	sig := signature.SignDate(cfg.Stamp.SystemName, refHolder, refCert, date)

	fmt.Printf("Holder:      %s\n", refHolder)
	fmt.Printf("Certificate: %s\n", refCert)
	fmt.Printf("Reference:   %s\n", ref)
	fmt.Printf("Signature:   %s\n", sig.Line)
	return nil
}
