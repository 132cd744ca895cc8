package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/orbital/internal/config"
	"github.com/roach88/orbital/internal/history"
	"github.com/roach88/orbital/internal/ids"
	"github.com/roach88/orbital/internal/transport"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	QueryFlags

	Config    string
	Address   string
	Streaming bool
	History   string
	Timeout   time.Duration

	// IDs overrides the client query id generator (for testing).
	IDs ids.Generator

	// Transport overrides the configured client (for testing).
	Transport transport.Transport
}

// QueryResult is the JSON payload of the query command.
type QueryResult struct {
	Verb     string `json:"verb"`
	Payloads []any  `json:"payloads"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(&QueryOptions{RootOptions: rootOpts})
}

func newQueryCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query against a TaxiQL server",
		Long: `Build a query from CUE type declarations, send it to a query server and
print every result payload on its own line.

Find queries use request-response unless --streaming is set; stream
queries always use the streaming binding.

Example:
  orbital query --schema ./types --find 'Person[]' --address http://localhost:9022
  orbital query --schema ./types --stream Person --as Target --history ./orbital.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}
	opts.QueryFlags.register(cmd)

	cmd.Flags().StringVar(&opts.Config, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&opts.Address, "address", "", "query server base URL (overrides config)")
	cmd.Flags().BoolVar(&opts.Streaming, "streaming", false, "send find queries over the streaming binding")
	cmd.Flags().StringVar(&opts.History, "history", "", "record the query in this SQLite database")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "give up after this long (0 means no limit)")

	return cmd
}

func (opts *QueryOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Address != "" {
		cfg.Address = opts.Address
	}
	if opts.Streaming {
		cfg.Mode = transport.ModeStreaming.String()
	}
	if opts.History != "" {
		cfg.History = opts.History
	}
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	if opts.Namespace == "" {
		opts.Namespace = cfg.Namespace
	}
	return cfg, cfg.Validate()
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	logger, err := cfg.NewLogger(cmd.ErrOrStderr(), opts.Verbose)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	b, err := opts.QueryFlags.Build()
	if err != nil {
		return failBuild(formatter, err)
	}
	if opts.IDs != nil {
		b = b.WithIDs(opts.IDs)
	}

	tr := opts.Transport
	if tr == nil {
		clientOpts, err := cfg.ClientOptions()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
		}
		client, err := transport.NewClient(cfg.Address, append(clientOpts, transport.WithLogger(logger))...)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid address", err)
		}
		tr = client
	}

	if cfg.History != "" {
		st, err := history.Open(cfg.History)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeHistory, "failed to open history", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing history", "error", closeErr)
			}
		}()
		rec := history.NewRecorder(st, tr, logger)
		defer rec.Wait()
		tr = rec
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	env, err := b.Envelope()
	if err != nil {
		return failBuild(formatter, err)
	}
	logger.Debug("sending query",
		"query_id", env.ClientQueryID,
		"verb", env.Verb.String(),
		"address", cfg.Address,
	)
	formatter.VerboseLog("%s", env.Statement)

	s := tr.Execute(ctx, env)
	defer s.Close()

	result := QueryResult{Verb: env.Verb.String(), Payloads: []any{}}
	for payload, err := range s.All(ctx) {
		if err != nil {
			return failQuery(formatter, env.ClientQueryID, err)
		}
		if formatter.Format == "json" {
			result.Payloads = append(result.Payloads, jsonPayload(payload))
			continue
		}
		fmt.Fprintln(formatter.Writer, string(payload))
	}

	if formatter.Format == "json" {
		return formatter.SuccessFor(env.ClientQueryID, result)
	}
	return nil
}

func failQuery(formatter *OutputFormatter, queryID string, err error) error {
	code := ErrCodeConnection
	if transport.IsQueryFailed(err) {
		code = ErrCodeQueryFailed
	}
	details := map[string]any{"query_id": queryID}
	if status := transport.StatusCode(err); status != 0 {
		details["status"] = status
	}
	if outErr := formatter.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, "query failed", err)
}

// jsonPayload keeps JSON payloads as raw JSON and anything else as a string.
func jsonPayload(p []byte) any {
	if json.Valid(p) {
		return json.RawMessage(p)
	}
	return string(p)
}
