// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/helper/codec"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/process"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/report"
	x509certs "github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

// ErrCertificateInput is returned when the certificate command gets neither a
// diagnostic file with --id nor a certificate file.
var ErrCertificateInput = errors.New("either --diagnostic with --id or --certs is required")

// crlBlockType is the PEM block type of a CRL.
const crlBlockType = "X509 CRL"

// certificateInput holds the flags of the certificate command.
type certificateInput struct {
	diagnosticFile string
	certificateID  string
	certsFile      string
	crlFiles       []string
	ocspFiles      []string
	trustedStore   bool
	showChain      bool
	saveChain      string
}

// readDER reads a DER file, unwrapping a PEM block of the given type.
func readDER(path, blockType string) ([]byte, error) {
	raw, err := codec.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if block, _ := pem.Decode(raw); block != nil && block.Type == blockType {
		return block.Bytes, nil
	}
	return raw, nil
}

func readAll(paths []string, blockType string) ([][]byte, error) {
	out := make([][]byte, 0, len(paths))
	for _, path := range paths {
		der, err := readDER(path, blockType)
		if err != nil {
			return nil, err
		}
		out = append(out, der)
	}
	return out, nil
}

// showChain prints the resolved chain in the report format.
func showChain(cmd *cobra.Command, ch *x509chain.Chain, revs []diagnostic.RevocationRecord, format string, at time.Time) error {
	w := cmd.OutOrStdout()
	switch format {
	case FormatTree:
		fmt.Fprintln(w, ch.RenderASCIITree(revs))
	case FormatJSON:
		raw, err := ch.ToVisualizationJSON(revs, at)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(raw))
	default:
		s, err := ch.RenderTable(revs)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
	}
	return nil
}

// fromCertificates builds diagnostic data from a certificate bundle whose first
// certificate is the one to validate, plus CRL and OCSP files. Certificates of
// delegated OCSP responders join the diagnostic data.
func (in *certificateInput) fromCertificates(cmd *cobra.Command, log logger.Logger, format string, at time.Time) (*diagnostic.DiagnosticData, string, error) {
	raw, err := codec.ReadFile(in.certsFile)
	if err != nil {
		return nil, "", err
	}
	certs, err := x509certs.New().DecodeMultiple(raw)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", in.certsFile, err)
	}

	ch := x509chain.New(certs[0])
	if err := ch.Resolve(certs[1:]); err != nil {
		// A partial chain still validates; it just finds no trust anchor.
		log.Printf("Warning: %v", err)
	}

	verifyAt := at
	if verifyAt.IsZero() {
		verifyAt = time.Now()
	}
	if err := ch.VerifyChain(verifyAt); err != nil {
		log.Printf("Warning: %v", err)
	}

	crls, err := readAll(in.crlFiles, crlBlockType)
	if err != nil {
		return nil, "", err
	}
	responses, err := readAll(in.ocspFiles, "")
	if err != nil {
		return nil, "", err
	}
	revs, responders, err := ch.Revocations(crls, responses)
	if err != nil {
		return nil, "", err
	}

	if in.showChain {
		if err := showChain(cmd, ch, revs, format, verifyAt); err != nil {
			return nil, "", err
		}
	}
	if in.saveChain != "" {
		if err := os.WriteFile(in.saveChain, ch.PEM(), 0o644); err != nil {
			return nil, "", err
		}
	}

	data := &diagnostic.DiagnosticData{
		Certificates: append(ch.Records(in.trustedStore), responders...),
		Revocations:  revs,
	}
	return data, x509certs.ID(certs[0]), nil
}

func newCertificateCommand(log logger.Logger) *cobra.Command {
	var (
		opts options
		in   certificateInput
	)

	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Validate a single certificate from diagnostic data or from raw X.509 material",
		Long: `Validate a single certificate.

The certificate comes either from a diagnostic data file (--diagnostic with --id)
or from a certificate bundle (--certs, PEM, DER or PKCS7) whose first certificate
is validated. The rest of the bundle is used to build its chain; CRLs and OCSP
responses given with --crl and --ocsp become its revocation data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.check(); err != nil {
				return err
			}
			at, err := opts.validationTime()
			if err != nil {
				return err
			}

			var (
				data   *diagnostic.DiagnosticData
				certID string
			)
			switch {
			case in.diagnosticFile != "" && in.certificateID != "":
				data, err = diagnostic.Load(in.diagnosticFile)
				certID = in.certificateID
			case in.certsFile != "":
				data, certID, err = in.fromCertificates(cmd, log, opts.format, at)
			default:
				return ErrCertificateInput
			}
			if err != nil {
				return err
			}
			if !at.IsZero() {
				data.ValidationTime = at
			}

			return opts.run(cmd, log, data, func(e *process.Executor, d *diagnostic.DiagnosticData) (*report.Reports, error) {
				return e.ValidateCertificate(d, certID)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.diagnosticFile, "diagnostic", "f", "", "diagnostic data file, JSON or YAML")
	f.StringVar(&in.certificateID, "id", "", "identifier of the certificate in the diagnostic data")
	f.StringVarP(&in.certsFile, "certs", "c", "", "certificate bundle, leaf first")
	f.StringSliceVar(&in.crlFiles, "crl", nil, "CRL file, DER or PEM (repeatable)")
	f.StringSliceVar(&in.ocspFiles, "ocsp", nil, "DER OCSP response file (repeatable)")
	f.BoolVar(&in.trustedStore, "trusted-store", false, "treat the bundle's root as a locally trusted anchor")
	f.BoolVar(&in.showChain, "show-chain", false, "print the resolved chain with its revocation status, in the report format")
	f.StringVar(&in.saveChain, "save-chain", "", "write the resolved chain to this file as PEM, leaf first")
	cmd.MarkFlagsMutuallyExclusive("diagnostic", "certs")
	opts.register(cmd)
	return cmd
}
