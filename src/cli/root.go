// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/metrics"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/policy"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/process"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/report"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/store"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/trustlist"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

var (
	// ErrDiagnosticRequired is returned when no diagnostic data file is given.
	ErrDiagnosticRequired = errors.New("diagnostic data file is required (--diagnostic)")
	// ErrUnknownFormat is returned for an unsupported --format value.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrInvalidTime is returned when --time is not RFC 3339.
	ErrInvalidTime = errors.New("invalid --time, expected RFC 3339")
)

// OperationPerformed reports whether the last command produced a report.
var OperationPerformed bool

// Output formats.
const (
	FormatTable = "table"
	FormatTree  = "tree"
	FormatJSON  = "json"
)

// Log formats.
const (
	LogText = "text"
	LogJSON = "json"
)

// options are the flags shared by commands producing a validation report.
type options struct {
	policyFile   string
	at           string
	format       string
	trustedLists []string
	storeDSN     string
	metricsFile  string
	verbose      bool
	logFormat    string
}

func (o *options) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.policyFile, "policy", "p", "", "validation policy file, JSON or YAML (default: $"+policy.EnvPolicyFile+" or the built-in policy)")
	f.StringVar(&o.at, "time", "", "validation time in RFC 3339 (default: the diagnostic data's, else now)")
	f.StringVarP(&o.format, "format", "o", FormatTable, "report format: table, tree or json")
	f.StringSliceVar(&o.trustedLists, "trusted-list", nil, "trusted list file to attach trust services from (repeatable)")
	f.StringVar(&o.storeDSN, "store", "", "SQLite database to store the run in")
	f.StringVar(&o.metricsFile, "metrics", "", "write Prometheus metrics of the run to this file")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log every token verdict")
	f.StringVar(&o.logFormat, "log-format", LogText, "verdict log format: text or json")
}

// validationTime returns the --time value, or zero when unset.
func (o *options) validationTime() (time.Time, error) {
	if o.at == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, o.at)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidTime, err)
	}
	return t.UTC(), nil
}

func (o *options) check() error {
	switch o.format {
	case FormatTable, FormatTree, FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, o.format)
	}
	switch o.logFormat {
	case LogText, LogJSON:
	default:
		return fmt.Errorf("%w: log format %q", ErrUnknownFormat, o.logFormat)
	}
	return nil
}

// verdictLogger returns the logger receiving token verdicts, or nil when verdicts
// are not logged. JSON logs go to stderr so stdout stays a clean report.
func (o *options) verdictLogger(cmd *cobra.Command, log logger.Logger) logger.Logger {
	if !o.verbose {
		return nil
	}
	if o.logFormat == LogJSON {
		return logger.NewStructuredLogger(cmd.ErrOrStderr(), false)
	}
	return log
}

// attachTrustedLists refreshes the configured trusted lists and attaches their
// services to data.
func (o *options) attachTrustedLists(ctx context.Context, data *diagnostic.DiagnosticData, p *policy.Policy, log logger.Logger) (*diagnostic.DiagnosticData, error) {
	if len(o.trustedLists) == 0 {
		return data, nil
	}

	sources := make([]trustlist.Source, 0, len(o.trustedLists))
	for _, path := range o.trustedLists {
		sources = append(sources, trustlist.FileSource{Path: path})
	}
	snapshot, err := trustlist.NewRefresher(sources,
		trustlist.WithMaxAge(p.TrustedListMaxAge()),
		trustlist.WithLogger(log),
	).Refresh(ctx)
	if err != nil {
		return nil, err
	}

	now := data.ValidationTime
	if now.IsZero() {
		now = time.Now().UTC()
	}
	attached, n := snapshot.Attach(data, now)
	log.Printf("Attached trust services to %d certificate(s) from %v", n, snapshot.Territories())
	if snapshot.Stale(now) {
		log.Printf("Trusted list snapshot issued %s is stale", snapshot.IssuedAt().UTC().Format(time.RFC3339))
	}
	return attached, nil
}

// run validates data through validate and emits the report.
func (o *options) run(
	cmd *cobra.Command,
	log logger.Logger,
	data *diagnostic.DiagnosticData,
	validate func(*process.Executor, *diagnostic.DiagnosticData) (*report.Reports, error),
) error {
	ctx := cmd.Context()

	p, err := policy.Load(o.policyFile)
	if err != nil {
		return err
	}

	data, err = o.attachTrustedLists(ctx, data, p, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	exec := process.New(p,
		process.WithLogger(o.verdictLogger(cmd, log)),
		process.WithMetrics(metrics.NewRecorder(reg)),
	)
	r, err := validate(exec, data)
	if err != nil {
		return err
	}

	if o.storeDSN != "" {
		if err := saveRun(ctx, o.storeDSN, r); err != nil {
			return err
		}
		log.Printf("Stored run %s in %s", r.RunID, o.storeDSN)
	}
	if o.metricsFile != "" {
		if err := prometheus.WriteToTextfile(o.metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if err := writeReport(cmd.OutOrStdout(), r, o.format); err != nil {
		return err
	}
	OperationPerformed = true
	return nil
}

func saveRun(ctx context.Context, dsn string, r *report.Reports) error {
	s, err := store.Open(dsn)
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = s.Save(ctx, r)
	return err
}

func writeReport(w io.Writer, r *report.Reports, format string) error {
	var out []byte
	switch format {
	case FormatJSON:
		raw, err := report.ToJSON(r)
		if err != nil {
			return err
		}
		out = raw
	case FormatTree:
		out = []byte(report.RenderTree(r.Detailed))
	default:
		s, err := report.RenderTable(r.Simple)
		if err != nil {
			return err
		}
		out = []byte(s)
	}
	_, err := w.Write(out)
	return err
}

func argv0() string {
	if len(os.Args) == 0 {
		return ""
	}
	return os.Args[0]
}

// NewRootCommand builds the command tree.
//
// Parameters:
//   - version: Version reported by --version
//   - log: Receives progress messages; nil discards them
//
// Returns:
//   - *cobra.Command: The root command with validate, certificate and runs attached
func NewRootCommand(version string, log logger.Logger) *cobra.Command {
	log = logger.OrDiscard(log)
	root := &cobra.Command{
		Use:           posix.ExecutableName(argv0()),
		Short:         "Temporal trust and revocation validation of signatures, timestamps and certificates",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newValidateCommand(log),
		newCertificateCommand(log),
		newRunsCommand(log),
	)
	return root
}

// Execute runs the command line in os.Args.
//
// Parameters:
//   - ctx: Cancels trusted-list refreshes and store operations
//   - version: Version reported by --version
//   - log: Receives progress messages
//
// Returns:
//   - error: The first error of the executed command
func Execute(ctx context.Context, version string, log logger.Logger) error {
	OperationPerformed = false
	root := NewRootCommand(version, log)
	if len(os.Args) > 1 {
		root.SetArgs(os.Args[1:])
	}
	return root.ExecuteContext(ctx)
}
