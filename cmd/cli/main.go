package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/gesledger/internal/adapter/http/dto"
	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/auth"
	"github.com/iho/gesledger/internal/infrastructure/logger"
	"github.com/iho/gesledger/internal/infrastructure/postgres"
)

type options struct {
	baseURL string
	timeout time.Duration
	userID  string
	role    string
	token   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "gesledger-cli",
		Short:         "GES ledger CLI tool",
		Long:          `A command line interface for the renewable-energy portfolio ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.userID, "user", os.Getenv("GESLEDGER_USER"), "User ID sent as X-User-ID")
	rootCmd.PersistentFlags().StringVar(&opts.role, "role", "admin", "Role sent as X-User-Role")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("GESLEDGER_TOKEN"), "Bearer token, overrides --user/--role")

	rootCmd.AddCommand(
		portfolioCmd(opts),
		requestsCmd(opts),
		fxCmd(opts),
		reconcileCmd(opts),
		tokenCmd(),
		migrateCmd(),
	)
	return rootCmd
}

func portfolioCmd(opts *options) *cobra.Command {
	var investorID string
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show an investor portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/portfolio"
			if investorID != "" {
				path += "?investor_id=" + url.QueryEscape(investorID)
			}

			var p dto.PortfolioResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &p); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Investor:        %s\n", p.InvestorID)
			fmt.Fprintf(w, "Balance:         %s\n", p.BalanceDisplay)
			fmt.Fprintf(w, "Invested:        %s (%d shares)\n", p.TotalInvestedDisplay, p.TotalShares)
			fmt.Fprintf(w, "Monthly return:  %s\n", dto.FormatTRY(p.TotalMonthlyReturn))
			rate := p.USDRate.String()
			if p.RateStale {
				rate += " (stale)"
			}
			fmt.Fprintf(w, "Monthly in USD:  %s at %s\n", p.TotalMonthlyReturnUSDDisplay, rate)

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\nHOLDING\tPROJECT\tSHARES\tAMOUNT\tTIER\tBASIS")
			for _, h := range p.Investments {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", truncate(h.ID, 12), h.ProjectName, h.Shares, dto.FormatTRY(h.Amount), h.Tier, h.Basis)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&investorID, "investor", "", "Investor ID (admin only)")
	return cmd
}

func requestsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Review pending requests",
	}

	var status, kind, investorID string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			if kind != "" {
				q.Set("kind", kind)
			}
			if investorID != "" {
				q.Set("investor_id", investorID)
			}
			path := "/api/v1/admin/requests"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var requests []dto.RequestResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &requests); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tINVESTOR\tTYPE\tSTATUS\tAMOUNT\tSHARES\tCREATED")
			for _, r := range requests {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					truncate(r.ID, 12), truncate(r.InvestorID, 12), r.Type, r.Status,
					r.AmountDisplay, r.Shares, r.CreatedAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().StringVar(&status, "status", "pending", "Filter by status (pending, approved, rejected)")
	listCmd.Flags().StringVar(&kind, "kind", "", "Comma separated kinds (deposit,withdraw,buy,sell)")
	listCmd.Flags().StringVar(&investorID, "investor", "", "Filter by investor ID")

	cmd.AddCommand(listCmd, decideCmd(opts, domain.DecisionApprove), decideCmd(opts, domain.DecisionReject))
	return cmd
}

func decideCmd(opts *options, decision domain.Decision) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   string(decision) + " REQUEST_ID",
		Short: strings.ToUpper(string(decision[:1])) + string(decision[1:]) + " a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := dto.DecideRequest{Decision: decision, Reason: reason}
			var resp dto.RequestResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodPut, "/api/v1/admin/requests/"+url.PathEscape(args[0]), body, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the decision")
	return cmd
}

func fxCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fx",
		Short: "Show the current USD/TRY rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			var quote dto.FXResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/fx/usd-try", nil, &quote); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), quote)
		},
	}
}

func reconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Check balances against entries and funded amounts against holdings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ReconciliationResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/admin/reconciliation", nil, &report); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if report.Consistent {
				fmt.Fprintf(w, "Reconciliation PASSED (%d investors, %d projects)\n", report.InvestorsChecked, report.ProjectsChecked)
				return nil
			}

			fmt.Fprintf(w, "Reconciliation FAILED: %d discrepancies\n", len(report.Discrepancies))
			for _, d := range report.Discrepancies {
				fmt.Fprintf(w, "  %s %s: recorded %s, calculated %s\n", d.ResourceType, d.ResourceID, d.Recorded, d.Calculated)
			}
			return fmt.Errorf("ledger is inconsistent")
		},
	}
}

func tokenCmd() *cobra.Command {
	var secret, userID, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(domain.Principal{UserID: userID, Role: domain.Role(role)})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC signing secret")
	cmd.Flags().StringVar(&userID, "subject", "", "User ID of the token holder")
	cmd.Flags().StringVar(&role, "as", string(domain.RoleAdmin), "Role of the token holder")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string
	cmd := &cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			log := logger.NewWithWriter(logger.Config{Level: "info", Format: "console", Service: "gesledger-cli"}, cmd.ErrOrStderr())
			mg, err := postgres.NewMigrator(databaseURL, path, log)
			if err != nil {
				return err
			}
			defer mg.Close()

			switch args[0] {
			case "up":
				return mg.Up()
			case "down":
				return mg.Down()
			}

			version, dirty, ok, err := mg.Version()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.Flags().StringVar(&path, "path", "migrations", "Directory holding the migration files")
	return cmd
}

type client struct {
	opts *options
	http *http.Client
}

func newClient(opts *options) *client {
	return &client{opts: opts, http: &http.Client{Timeout: opts.timeout}}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.opts.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.token)
	} else if c.opts.userID != "" {
		req.Header.Set("X-User-ID", c.opts.userID)
		req.Header.Set("X-User-Role", c.opts.role)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed (status %d): %s %s", method, path, resp.StatusCode, apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("%s %s failed (status %d): %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
