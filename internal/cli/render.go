package cli

import (
	"github.com/spf13/cobra"
)

// RenderResult is the JSON payload of the render command.
type RenderResult struct {
	Verb      string `json:"verb"`
	Statement string `json:"statement"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &QueryFlags{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the TaxiQL statement for a query",
		Long: `Build a query from CUE type declarations and print its TaxiQL statement
without contacting a server.

Example:
  orbital render --schema ./types --find 'Person[]' --as Target
  orbital render --schema ./types --find 'Person[]' --where 'FirstName == "Jimmy"'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, flags, cmd)
		},
	}
	flags.register(cmd)

	return cmd
}

func runRender(opts *RootOptions, flags *QueryFlags, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Loading schema from %s", flags.Schema)
	b, err := flags.Build()
	if err != nil {
		return failBuild(formatter, err)
	}

	text, err := b.Statement()
	if err != nil {
		return failBuild(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(RenderResult{Verb: b.Verb().String(), Statement: text})
	}
	return formatter.Success(text)
}
