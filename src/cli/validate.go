// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/process"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/report"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

func newValidateCommand(log logger.Logger) *cobra.Command {
	var (
		opts           options
		diagnosticFile string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every signature and timestamp of a diagnostic data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if diagnosticFile == "" {
				return ErrDiagnosticRequired
			}
			if err := opts.check(); err != nil {
				return err
			}
			at, err := opts.validationTime()
			if err != nil {
				return err
			}

			data, err := diagnostic.Load(diagnosticFile)
			if err != nil {
				return err
			}
			if !at.IsZero() {
				data.ValidationTime = at
			}

			return opts.run(cmd, log, data, func(e *process.Executor, d *diagnostic.DiagnosticData) (*report.Reports, error) {
				return e.Execute(d)
			})
		},
	}

	cmd.Flags().StringVarP(&diagnosticFile, "diagnostic", "f", "", "diagnostic data file, JSON or YAML")
	opts.register(cmd)
	return cmd
}
