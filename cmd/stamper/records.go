package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamscao/certstamp/internal/models"
	"github.com/adamscao/certstamp/internal/signature"
)

var holderCmd = &cobra.Command{
	Use:   "holder",
	Short: "Manage certificate holders",
}

var holderAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a holder",
	RunE:  addHolder,
}

var holderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all holders and their certificates",
	RunE:  listHolders,
}

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Manage certificates",
}

var certAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a certificate to a holder",
	RunE:  addCert,
}

var (
	holderID     string
	holderName   string
	certID       string
	certTitle    string
	certLocation string
)

func init() {
	holderAddCmd.Flags().StringVarP(&holderID, "holder", "H", "", "Holder ID (required)")
	holderAddCmd.Flags().StringVarP(&holderName, "name", "n", "", "Holder name")
	holderAddCmd.MarkFlagRequired("holder")

	certAddCmd.Flags().StringVarP(&holderID, "holder", "H", "", "Holder ID (required)")
	certAddCmd.Flags().StringVar(&certID, "cert", "", "Certificate ID (required)")
	certAddCmd.Flags().StringVarP(&certTitle, "title", "t", "", "Certificate title")
	certAddCmd.Flags().StringVarP(&certLocation, "location", "l", "", "Document URL or path")
	certAddCmd.MarkFlagRequired("holder")
	certAddCmd.MarkFlagRequired("cert")

	holderCmd.AddCommand(holderAddCmd)
	holderCmd.AddCommand(holderListCmd)
	certCmd.AddCommand(certAddCmd)
}

func addHolder(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signature.ValidateIdentifier(holderID); err != nil {
		return err
	}
	if err := initStore(ctx); err != nil {
		return err
	}
	defer records.Close(context.Background())

	holder := &models.Holder{
		HolderID: holderID,
		Name:     holderName,
	}
	if err := records.Holders.Create(ctx, holder); err != nil {
		return fmt.Errorf("failed to create holder: %w", err)
	}

	fmt.Printf("Holder created: %s\n", holder.HolderID)
	return nil
}

func addCert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signature.ValidateIdentifier(certID); err != nil {
		return err
	}
	if err := initStore(ctx); err != nil {
		return err
	}
	defer records.Close(context.Background())

	entry := models.CertificateEntry{
		CertificateID:    certID,
		Title:            certTitle,
		DocumentLocation: certLocation,
	}
	if err := records.Holders.AddCertificate(ctx, holderID, entry); err != nil {
		return fmt.Errorf("failed to add certificate: %w", err)
	}

	ref, err := signature.BuildReference(cfg.Server.BaseURL, holderID, certID)
	if err != nil {
		return err
	}

	fmt.Printf("Certificate %s added to %s\n", certID, holderID)
	fmt.Printf("Reference: %s\n", ref)
	return nil
}

func listHolders(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initStore(ctx); err != nil {
		return err
	}
	defer records.Close(context.Background())

	holders, err := records.Holders.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list holders: %w", err)
	}

	if len(holders) == 0 {
		fmt.Println("No holders found")
		return nil
	}

	fmt.Printf("\nTotal holders: %d\n\n", len(holders))
	fmt.Printf("%-20s %-25s %-20s %s\n", "Holder", "Name", "Certificate", "Document")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, h := range holders {
		if len(h.Certificates) == 0 {
			fmt.Printf("%-20s %-25s %-20s %s\n", h.HolderID, h.Name, "-", "-")
			continue
		}
		for i, c := range h.Certificates {
			id, name := h.HolderID, h.Name
			if i > 0 {
				id, name = "", ""
			}
			location := c.DocumentLocation
			if location == "" {
				location = "(missing)"
			}
			fmt.Printf("%-20s %-25s %-20s %s\n", id, name, c.CertificateID, location)
		}
	}

	return nil
}
