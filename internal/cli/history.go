package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/orbital/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// HistoryEntry is one row of history output.
type HistoryEntry struct {
	QueryID    string `json:"query_id"`
	Verb       string `json:"verb"`
	Statement  string `json:"statement"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	State      string `json:"state"`
	Payloads   int    `json:"payloads"`
	Error      string `json:"error,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded queries",
		Long: `List queries recorded by 'orbital query --history', newest first.

Example:
  orbital history --db ./orbital.db --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum entries to show (0 for all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, "database not found", errors.New(opts.Database))
	}

	st, err := history.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to open history", err)
	}
	defer st.Close()

	entries, err := st.List(cmd.Context(), opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to read history", err)
	}

	rows := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		rows[i] = HistoryEntry{
			QueryID:   e.QueryID,
			Verb:      e.Verb,
			Statement: e.Statement,
			StartedAt: e.StartedAt.Format(time.RFC3339Nano),
			State:     e.State,
			Payloads:  e.Payloads,
			Error:     e.Error,
		}
		if !e.FinishedAt.IsZero() {
			rows[i].FinishedAt = e.FinishedAt.Format(time.RFC3339Nano)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(formatter.Writer, "No queries recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUERY ID\tVERB\tSTATE\tPAYLOADS\tSTARTED\tSTATEMENT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", r.QueryID, r.Verb, r.State, r.Payloads, r.StartedAt, oneLine(r.Statement))
	}
	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
