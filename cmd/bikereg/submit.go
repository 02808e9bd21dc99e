package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/bikereg/internal/validation"
)

// errRegistrationRejected is returned when the backend did not accept the
// registration.
var errRegistrationRejected = errors.New("registration was not accepted")

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Register a bike from a record file",
	Long: `Run the whole registration without the interactive wizard.

The record file holds the serial number, the purchase date and the owner's
details as YAML or JSON. The serial number is verified first; every step is
checked before the registration is submitted.

Examples:
  bikereg submit -f record.yaml
  bikereg submit -f record.json --out receipt.json
  bikereg submit -f record.yaml --dry-run`,
	RunE: runSubmit,
}

var (
	submitFile   string
	submitOut    string
	submitDryRun bool
)

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&submitFile, "file", "f", "", "record file (YAML or JSON)")
	submitCmd.Flags().StringVarP(&submitOut, "out", "o", "", "write the confirmation to this file (.yaml or .json)")
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "validate the record without contacting the backend")
	_ = submitCmd.MarkFlagRequired("file")
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	if err := validation.ValidatePath(submitFile); err != nil {
		return fmt.Errorf("invalid --file: %w", err)
	}
	if submitOut != "" {
		if err := validation.ValidatePath(submitOut); err != nil {
			return fmt.Errorf("invalid --out: %w", err)
		}
	}

	registrar, err := newRegistrar(cmd)
	if err != nil {
		return err
	}

	in, err := registrar.LoadInput(submitFile)
	if err != nil {
		return err
	}

	if submitDryRun {
		errs, err := registrar.Validate(in)
		if err != nil {
			return err
		}
		if errs.Valid() {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ Record is valid")
			return nil
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✗ Record is invalid")
		for _, f := range errs.Fields() {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", f, errs[f])
		}
		return fmt.Errorf("%d field(s) invalid", len(errs))
	}

	confirmation, err := registrar.Submit(cmd.Context(), in)
	if err != nil {
		return err
	}

	registrar.PrintConfirmation(confirmation)
	if submitOut != "" {
		if err := registrar.WriteConfirmation(submitOut, confirmation); err != nil {
			return err
		}
	}
	if !confirmation.Success {
		return errRegistrationRejected
	}
	return nil
}
