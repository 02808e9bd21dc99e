package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/bikereg/internal/app"
	"github.com/felixgeelhaar/bikereg/internal/validation"
)

var verifyCmd = &cobra.Command{
	Use:   "verify SERIAL",
	Short: "Verify a bike serial number",
	Long: `Verify a serial number with the registration backend and print the
bike model and the shop that sold it.

Examples:
  bikereg verify STM34D30L24110132N`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	serial := args[0]
	if err := validation.ValidateSerialNumber(serial); err != nil {
		return err
	}

	registrar, err := newRegistrar(cmd)
	if err != nil {
		return err
	}

	bike, err := registrar.Verify(cmd.Context(), serial)
	if err != nil {
		var stepErr *app.StepError
		if errors.As(err, &stepErr) {
			return errors.New(stepErr.Message)
		}
		return err
	}

	registrar.PrintBike(bike)
	return nil
}
