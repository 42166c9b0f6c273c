package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/relgrid-labs/relgrid/internal/cli/config"
	"github.com/relgrid-labs/relgrid/pkg/adapter"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format  string // Output format: text, json, md
	Timeout time.Duration
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the health of the configuration and connections",
		Long: `Check the Relgrid setup for problems.

The doctor command verifies the config file, the preference database,
the registered adapters and every configured connection, and reports
each check as pass, warn or error. It exits non-zero when any check
errors, so it works as a readiness probe in scripts.`,
		Example: `  # Run all checks
  relgrid doctor

  # Output as JSON
  relgrid doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format: text, json, md")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "Per-connection ping timeout")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks     []HealthCheck `json:"checks"`
	IssueCount int           `json:"issue_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	switch opts.Format {
	case "text", "json", "md", "markdown":
	default:
		return fmt.Errorf("unknown format %q (choose text, json or md)", opts.Format)
	}

	cfg := getConfig()

	var checks []HealthCheck
	checks = append(checks, configChecks(cfg)...)
	checks = append(checks, stateCheck(cfg))
	checks = append(checks, adapterCheck())
	checks = append(checks, connectionChecks(cmd.Context(), cfg, opts.Timeout)...)

	out := &DoctorOutput{Checks: checks}
	for _, c := range checks {
		if c.Status != "pass" {
			out.IssueCount++
		}
	}

	var renderErr error
	switch opts.Format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		renderErr = enc.Encode(out)
	case "md", "markdown":
		renderErr = renderDoctorMarkdown(cmd.OutOrStdout(), out)
	default:
		renderErr = renderDoctorText(cmd.OutOrStdout(), out)
	}
	if renderErr != nil {
		return renderErr
	}

	failed := 0
	for _, c := range checks {
		if c.Status == "error" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func configChecks(cfg *config.Config) []HealthCheck {
	var checks []HealthCheck

	fileCheck := HealthCheck{Name: "config file", Group: "configuration", Status: "pass"}
	if path := config.GetConfigFileUsed(); path != "" {
		fileCheck.Details = []string{path}
	} else {
		fileCheck.Status = "warn"
		fileCheck.Details = []string{"no relgrid.yaml found, using defaults and RELGRID_* environment"}
	}
	checks = append(checks, fileCheck)

	checks = append(checks, HealthCheck{
		Name:    "listen address",
		Group:   "configuration",
		Status:  "pass",
		Details: []string{cfg.Listen},
	})

	connCheck := HealthCheck{Name: "connections", Group: "configuration", Status: "pass"}
	if len(cfg.Connections) == 0 {
		connCheck.Status = "warn"
		connCheck.Details = []string{"none configured (add one to relgrid.yaml)"}
	} else {
		connCheck.Details = []string{fmt.Sprintf("%d configured", len(cfg.Connections))}
	}
	checks = append(checks, connCheck)

	return checks
}

func stateCheck(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "preference database", Group: "state", Status: "pass"}

	store, err := openStateStore(cfg, nil)
	if err != nil {
		check.Status = "error"
		check.Details = []string{err.Error()}
		return check
	}
	defer func() { _ = store.Close() }()

	details := []string{store.Path()}
	if version, err := store.GetMigrationVersion(); err == nil {
		details = append(details, fmt.Sprintf("migration version %d", version))
	}
	if count, err := store.CountPreferences(); err == nil {
		details = append(details, fmt.Sprintf("%d saved preferences", count))
	}
	check.Details = details
	return check
}

func adapterCheck() HealthCheck {
	available := adapter.ListAdapters()
	check := HealthCheck{Name: "registered adapters", Group: "adapters", Status: "pass"}
	if len(available) == 0 {
		check.Status = "error"
		check.Details = []string{"no adapters registered"}
		return check
	}
	check.Details = []string{strings.Join(available, ", ")}
	return check
}

func connectionChecks(ctx context.Context, cfg *config.Config, timeout time.Duration) []HealthCheck {
	checks := make([]HealthCheck, 0, len(cfg.Connections))
	for _, cc := range cfg.Connections {
		checks = append(checks, pingConnection(ctx, cc, timeout))
	}
	return checks
}

// pingConnection connects and pings without prompting. A connection that
// needs an interactive password reports its driver error here.
func pingConnection(ctx context.Context, cc config.ConnectionConfig, timeout time.Duration) HealthCheck {
	check := HealthCheck{Name: cc.Name, Group: "connections", Status: "pass"}

	connCfg := cc.ConnConfig()
	ad, err := adapter.NewAdapter(connCfg, nil)
	if err != nil {
		check.Status = "error"
		check.Details = []string{err.Error()}
		return check
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := ad.Connect(pingCtx, connCfg); err != nil {
		check.Status = "error"
		check.Details = []string{err.Error()}
		return check
	}
	defer func() { _ = ad.Close() }()

	if err := ad.Ping(pingCtx); err != nil {
		check.Status = "error"
		check.Details = []string{err.Error()}
		return check
	}

	detail := connCfg.Type
	if cc.ReadOnly {
		detail += ", read only"
	}
	check.Details = []string{detail}
	return check
}

func renderDoctorText(w io.Writer, out *DoctorOutput) error {
	_, _ = fmt.Fprintln(w, "Relgrid Health Report")
	_, _ = fmt.Fprintln(w, strings.Repeat("=", 55))

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, titleCaser.String(currentGroup))
			_, _ = fmt.Fprintln(w, strings.Repeat("-", 40))
		}

		marker := "PASS"
		switch check.Status {
		case "warn":
			marker = "WARN"
		case "error":
			marker = "ERROR"
		}

		line := fmt.Sprintf("  [%s] %s", marker, check.Name)
		rest := check.Details
		if len(rest) > 0 {
			line += ": " + rest[0]
			rest = rest[1:]
		}
		_, _ = fmt.Fprintln(w, line)
		for _, detail := range rest {
			_, _ = fmt.Fprintf(w, "          %s\n", detail)
		}
	}
	_, _ = fmt.Fprintln(w)

	if out.IssueCount == 0 {
		_, _ = fmt.Fprintln(w, "All checks passed")
	} else {
		_, _ = fmt.Fprintf(w, "%d issue(s) found\n", out.IssueCount)
	}
	return nil
}

func renderDoctorMarkdown(w io.Writer, out *DoctorOutput) error {
	_, _ = fmt.Fprintln(w, "# Relgrid Health Report")
	_, _ = fmt.Fprintln(w)

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			_, _ = fmt.Fprintln(w, "## "+titleCaser.String(currentGroup))
			_, _ = fmt.Fprintln(w)
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		_, _ = fmt.Fprintf(w, "- **[%s]** %s\n", status, check.Name)
		for _, detail := range check.Details {
			_, _ = fmt.Fprintf(w, "  - %s\n", detail)
		}
	}
	_, _ = fmt.Fprintln(w)

	if out.IssueCount == 0 {
		_, _ = fmt.Fprintln(w, "All checks passed.")
	} else {
		_, _ = fmt.Fprintf(w, "%d issue(s) found.\n", out.IssueCount)
	}
	return nil
}
