package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/bikereg/internal/tui"
	"github.com/felixgeelhaar/bikereg/internal/validation"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a bike interactively",
	Long: `Start the interactive registration wizard.

The wizard verifies the serial number, shows the bike it belongs to, and
collects the purchase date and the owner's details before submitting.

Examples:
  bikereg register
  bikereg register --serial STM34D30L24110132N`,
	RunE: runRegister,
}

var registerSerial string

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVar(&registerSerial, "serial", "", "prefill the serial number")
}

func runRegister(cmd *cobra.Command, _ []string) error {
	if registerSerial != "" {
		if err := validation.ValidateSerialNumber(registerSerial); err != nil {
			return fmt.Errorf("invalid --serial: %w", err)
		}
	}

	registrar, err := newRegistrar(cmd)
	if err != nil {
		return err
	}

	session, err := registrar.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()

	opts := tui.NewWizardOptions().WithSerial(registerSerial)
	result, err := tui.RunRegistrationWizard(cmd.Context(), session, registrar.Backend(), opts)
	if err != nil {
		return err
	}

	if !result.Submitted() {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Registration cancelled.")
		return nil
	}
	registrar.PrintConfirmation(result.Confirmation)
	if !result.Confirmation.Success {
		return errRegistrationRejected
	}
	return nil
}
