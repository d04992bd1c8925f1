package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

type jobView struct {
	ID            string   `json:"id"`
	Status        string   `json:"status"`
	Stage         string   `json:"stage"`
	ProgressPct   int      `json:"progress_pct"`
	EstimatedCost int64    `json:"estimated_cost"`
	ActualCost    int64    `json:"actual_cost"`
	CacheHit      bool     `json:"cache_hit"`
	ReportID      string   `json:"report_id"`
	CheckSets     []string `json:"check_sets"`
	ErrorCode     string   `json:"error_code"`
	ErrorMessage  string   `json:"error_message"`
}

type progressEvent struct {
	JobID    string `json:"job_id"`
	Stage    string `json:"stage"`
	Pct      int    `json:"pct"`
	Status   string `json:"status"`
	Terminal bool   `json:"terminal"`
	ErrCode  string `json:"error_code,omitempty"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func newJobsCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Submit and follow evaluation jobs",
	}

	var (
		submitURI      string
		submitFilename string
		submitDuration float64
		submitSize     int64
		submitSets     []string
		submitFunnel   string
		submitWatch    bool
	)
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a video for evaluation",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			var j jobView
			err := client.call(cmd.Context(), http.MethodPost, "/api/v1/jobs", map[string]any{
				"video_uri":        submitURI,
				"filename":         submitFilename,
				"duration_seconds": submitDuration,
				"size_bytes":       submitSize,
				"check_sets":       submitSets,
				"funnel_context":   submitFunnel,
			}, &j)
			if err != nil {
				return err
			}
			if err := printResult(cmd, opts, j, func(w io.Writer) {
				fmt.Fprintf(w, "job %s queued (estimate %d tokens)\n", j.ID, j.EstimatedCost)
			}); err != nil {
				return err
			}
			if submitWatch {
				return watchJob(cmd, opts, j.ID)
			}
			return nil
		},
	}
	submitCmd.Flags().StringVar(&submitURI, "uri", "", "video URI or object-store key (required)")
	submitCmd.Flags().StringVar(&submitFilename, "filename", "", "display filename")
	submitCmd.Flags().Float64Var(&submitDuration, "duration", 0, "video duration in seconds, if known")
	submitCmd.Flags().Int64Var(&submitSize, "size", 0, "upload size in bytes, if known")
	submitCmd.Flags().StringSliceVar(&submitSets, "check-sets", nil, "check-sets to run (long_form_abcd, shorts, creative_intelligence)")
	submitCmd.Flags().StringVar(&submitFunnel, "funnel", "", "funnel context hint (TOF, MOF, BOF)")
	submitCmd.Flags().BoolVarP(&submitWatch, "watch", "w", false, "stream progress until the job finishes")
	submitCmd.MarkFlagRequired("uri")

	statusCmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			var j jobView
			if err := client.call(cmd.Context(), http.MethodGet, "/api/v1/jobs/"+args[0], nil, &j); err != nil {
				return err
			}
			return printResult(cmd, opts, j, func(w io.Writer) {
				fmt.Fprintf(w, "%s  %s  %d%%  (%s)\n", j.ID, j.Status, j.ProgressPct, j.Stage)
				if j.ErrorMessage != "" {
					fmt.Fprintf(w, "error: %s (%s)\n", j.ErrorMessage, j.ErrorCode)
				}
			})
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Stream a job's progress events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchJob(cmd, opts, args[0])
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			if err := client.call(cmd.Context(), http.MethodPost, "/api/v1/jobs/"+args[0]+"/cancel", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cancellation requested")
			return nil
		},
	}

	reportCmd := &cobra.Command{
		Use:   "report <job-id>",
		Short: "Fetch a finished job's report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)
			var report json.RawMessage
			if err := client.call(cmd.Context(), http.MethodGet, "/api/v1/jobs/"+args[0]+"/report", nil, &report); err != nil {
				return err
			}
			var pretty map[string]any
			if err := json.Unmarshal(report, &pretty); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pretty)
		},
	}

	cmd.AddCommand(submitCmd, statusCmd, watchCmd, cancelCmd, reportCmd)
	return cmd
}

// watchJob follows the SSE stream until the terminal event.
func watchJob(cmd *cobra.Command, opts *RootOptions, jobID string) error {
	client := newAPIClient(opts)

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet,
		client.base+"/api/v1/jobs/"+jobID+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+client.token)
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives the normal request timeout.
	streaming := &http.Client{}
	resp, err := streaming.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev progressEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev); err != nil {
			continue
		}
		if ev.Stage == "" {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%3d%%  %s\n", ev.Pct, ev.Stage)
		if ev.Terminal {
			if ev.ErrMsg != "" {
				return fmt.Errorf("job %s: %s (%s)", ev.Status, ev.ErrMsg, ev.ErrCode)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s\n", ev.Status)
			return nil
		}
	}
	if err := scanner.Err(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
