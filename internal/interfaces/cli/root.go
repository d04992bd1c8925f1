// Package cli implements the reelctl command tree.  Every command talks to a
// running API server over HTTP using the caller's bearer token.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global CLI flags.
type RootOptions struct {
	ServerAddr string
	Token      string
	Output     string
	Timeout    time.Duration
}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "reelctl",
		Short:   "reelgauge CLI — submit and follow video creative evaluations",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		Long: "reelctl drives the reelgauge evaluation platform: submit videos for\n" +
			"creative-quality analysis, follow job progress, inspect reports, and\n" +
			"manage the token balance.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ServerAddr, "server", envOr("REELGAUGE_SERVER", "http://localhost:8080"), "API server address")
	pf.StringVar(&opts.Token, "token", os.Getenv("REELGAUGE_TOKEN"), "bearer token (or REELGAUGE_TOKEN)")
	pf.StringVarP(&opts.Output, "output", "o", "text", "output format (text, json)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(
		newJobsCmd(opts),
		newBillingCmd(opts),
		newAdminCmd(opts),
	)
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// apiClient is the minimal HTTP client the commands share.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(opts *RootOptions) *apiClient {
	return &apiClient{
		base:  strings.TrimRight(opts.ServerAddr, "/"),
		token: opts.Token,
		http:  &http.Client{Timeout: opts.Timeout},
	}
}

// call performs one JSON round trip; out may be nil.
func (c *apiClient) call(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// printResult renders data per the --output flag.
func printResult(cmd *cobra.Command, opts *RootOptions, data any, text func(io.Writer)) error {
	if strings.EqualFold(opts.Output, "json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	text(cmd.OutOrStdout())
	return nil
}
