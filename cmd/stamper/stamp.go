package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamscao/certstamp/internal/models"
	"github.com/adamscao/certstamp/internal/stamper"
)

var stampCmd = &cobra.Command{
	Use:   "stamp",
	Short: "Stamp certificates",
}

var stampHolderCmd = &cobra.Command{
	Use:   "holder",
	Short: "Stamp every certificate of a holder",
	RunE:  stampHolder,
}

var stampCertCmd = &cobra.Command{
	Use:   "cert",
	Short: "Stamp a single certificate",
	RunE:  stampCert,
}

var stampHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded stamps of a holder",
	RunE:  stampHistory,
}

var (
	historyLimit  int
	stampHolderID string
	stampCertID   string
	stampLocation string
)

func init() {
	stampCmd.PersistentFlags().StringVarP(&stampHolderID, "holder", "H", "", "Holder ID (required)")
	stampCmd.MarkPersistentFlagRequired("holder")

	stampCertCmd.Flags().StringVar(&stampCertID, "cert", "", "Certificate ID (required)")
	stampCertCmd.Flags().StringVar(&stampLocation, "location", "", "Override the stored document location")
	stampCertCmd.MarkFlagRequired("cert")

	stampHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of stamps to show")

	stampCmd.AddCommand(stampHolderCmd)
	stampCmd.AddCommand(stampCertCmd)
	stampCmd.AddCommand(stampHistoryCmd)
}

func stampHolder(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initStore(ctx); err != nil {
		return err
	}
	defer records.Close(context.Background())

	s, err := newStamper()
	if err != nil {
		return err
	}

	report, err := s.StampHolder(ctx, stampHolderID)
	if err != nil {
		return fmt.Errorf("failed to stamp holder %s: %w", stampHolderID, err)
	}

	printReport(report)

	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d certificates failed", len(report.Failed), len(report.Failed)+len(report.Stamped))
	}
	return nil
}

func stampCert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initStore(ctx); err != nil {
		return err
	}
	defer records.Close(context.Background())

	holder, err := records.Holders.FindHolder(ctx, stampHolderID)
	if err != nil {
		return fmt.Errorf("failed to find holder: %w", err)
	}

	entry := holder.Certificate(stampCertID)
	if entry == nil {
		return fmt.Errorf("certificate %s of holder %s: %w", stampCertID, stampHolderID, models.ErrNotFound)
	}

	rec := holder.Record(*entry)
	if stampLocation != "" {
		rec.DocumentLocation = stampLocation
	}

	s, err := newStamper()
	if err != nil {
		return err
	}

	outcome, err := s.StampCertificate(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to stamp %s (%s): %w", stampCertID, stamper.Kind(err), err)
	}

	fmt.Printf("Stamped %s\n", outcome.Path)
	fmt.Printf("Reference: %s\n", outcome.Reference)
	fmt.Printf("Signature: %s\n", outcome.Signature.Line)
	return nil
}

func stampHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initStore(ctx); err != nil {
		return err
	}
	defer records.Close(context.Background())

	if records.Stamps == nil {
		return fmt.Errorf("no stamp log configured, set store.path")
	}

	stamps, err := records.Stamps.ListByHolder(ctx, stampHolderID, historyLimit)
	if err != nil {
		return err
	}

	if len(stamps) == 0 {
		fmt.Println("No stamps found")
		return nil
	}

	fmt.Printf("%-20s %-12s %-12s %-30s %s\n", "Certificate", "Sign Date", "Token", "Output", "Stamped At")
	fmt.Println("--------------------------------------------------------------------------------")
	for _, st := range stamps {
		fmt.Printf("%-20s %-12s %-12s %-30s %s\n",
			st.CertificateID,
			st.SignDate,
			st.Token,
			st.OutputName,
			st.StampedAt.Format("2006-01-02 15:04:05"),
		)
	}

	return nil
}

func printReport(report *stamper.Report) {
	fmt.Printf("\nHolder: %s\n", report.HolderID)
	fmt.Printf("Stamped: %d  Failed: %d\n\n", len(report.Stamped), len(report.Failed))

	if len(report.Stamped) > 0 {
		fmt.Printf("%-20s %-12s %s\n", "Certificate", "Token", "Output")
		fmt.Println("--------------------------------------------------------------------------------")
		for _, o := range report.Stamped {
			fmt.Printf("%-20s %-12s %s\n", o.CertificateID, o.Signature.Token, o.Path)
		}
	}

	if len(report.Failed) > 0 {
		fmt.Printf("\n%-20s %-20s %s\n", "Certificate", "Kind", "Error")
		fmt.Println("--------------------------------------------------------------------------------")
		for _, f := range report.Failed {
			fmt.Printf("%-20s %-20s %v\n", f.CertificateID, stamper.Kind(f.Err), f.Err)
		}
	}
}
