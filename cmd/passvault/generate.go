package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/passvault/internal/adapter/driven/vaultcipher"
	"github.com/ericfisherdev/passvault/internal/application"
)

func newGenerateCmd() *cobra.Command {
	opts := application.GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a random password",
		Long: fmt.Sprintf(`Print a random password drawn from the selected character classes.
With no class flags every class is used.

The web client offers lengths %d to %d. Longer or shorter passwords are
still generated, with a note on stderr.`, application.MinUILength, application.MaxUILength),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			if !f.Changed("upper") && !f.Changed("lower") && !f.Changed("digits") && !f.Changed("symbols") {
				defaults := application.DefaultGenerateOptions()
				defaults.Length = opts.Length
				opts = defaults
			}

			pw, err := application.NewPasswordGenerator().Generate(opts.Length, opts.Classes())
			if err != nil {
				return err
			}
			if opts.Length < application.MinUILength || opts.Length > application.MaxUILength {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: length %d is outside the %d-%d range offered by the web client\n",
					opts.Length, application.MinUILength, application.MaxUILength)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), pw)
			return err
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.Length, "length", "n", application.DefaultLength, "password length")
	f.BoolVar(&opts.IncludeUppercase, "upper", false, "include A-Z")
	f.BoolVar(&opts.IncludeLowercase, "lower", false, "include a-z")
	f.BoolVar(&opts.IncludeNumbers, "digits", false, "include 0-9")
	f.BoolVar(&opts.IncludeSymbols, "symbols", false, "include punctuation")

	return cmd
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a new encryption key for PASSVAULT_ENCRYPTION_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := vaultcipher.GenerateKey()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}
}
