package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-access/internal/rbac"
)

// ExitError carries a command's exit code through cobra.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// RootOptions wires the root command.
type RootOptions struct {
	// Serve runs the HTTP server until ctx is cancelled.
	Serve  func(ctx context.Context) error
	Stdout io.Writer
	Stderr io.Writer
}

// NewRootCommand builds the odyssey command tree.
func NewRootCommand(opts RootOptions) *cobra.Command {
	var grantsFile string
	var jsonOutput bool

	root := &cobra.Command{
		Use:           "odyssey",
		Short:         "Role and permission resolution for the plant workspace.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.PersistentFlags().StringVar(&grantsFile, "grants-file", os.Getenv("AUTH_GRANTS_FILE"), "YAML file with role grant overrides")
	root.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Enable JSON output")

	loadTable := func() (*rbac.GrantTable, error) {
		if grantsFile == "" {
			return rbac.NewGrantTable(nil), nil
		}
		overrides, err := rbac.LoadGrantFile(grantsFile)
		if err != nil {
			return nil, err
		}
		return rbac.NewGrantTable(overrides), nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the access HTTP server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Serve == nil {
				return fmt.Errorf("serve: not configured")
			}
			return opts.Serve(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "grants [role]",
		Short: "Print the grant table or one normalized role.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable()
			if err != nil {
				return err
			}
			gopts := GrantsOptions{Table: table, JSONOutput: jsonOutput, Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
			if len(args) == 1 {
				gopts.Role = args[0]
			}
			return exit(GrantsCommand(gopts))
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "check <role> <feature> <action>",
		Short: "Report whether a role grants feature/action.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable()
			if err != nil {
				return err
			}
			return exit(CheckCommand(CheckOptions{
				Table:      table,
				Role:       args[0],
				Feature:    args[1],
				Action:     args[2],
				JSONOutput: jsonOutput,
				Stdout:     cmd.OutOrStdout(),
				Stderr:     cmd.ErrOrStderr(),
			}))
		},
	})

	return root
}

func exit(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}
