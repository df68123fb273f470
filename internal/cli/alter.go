package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/querysql"
)

// AlterResult reports a drop or rename.
type AlterResult struct {
	Table     string `json:"table"`
	Database  string `json:"database"`
	Action    string `json:"action"`
	NewName   string `json:"new_name,omitempty"`
	Statement string `json:"statement"`
}

func (r AlterResult) String() string {
	if r.NewName != "" {
		return fmt.Sprintf("renamed %s to %s in %s", r.Table, r.NewName, r.Database)
	}
	return fmt.Sprintf("dropped %s from %s", r.Table, r.Database)
}

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table if it exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlter(rootOpts, cmd, AlterResult{
				Table:     args[0],
				Action:    "drop",
				Statement: querysql.DropTable(args[0]),
			})
		},
	}
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <table> <new-name>",
		Short: "Rename a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlter(rootOpts, cmd, AlterResult{
				Table:     args[0],
				Action:    "rename",
				NewName:   args[1],
				Statement: querysql.RenameTable(args[0], args[1]),
			})
		},
	}
}

func runAlter(opts *RootOptions, cmd *cobra.Command, r AlterResult) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	q, database, err := s.queue(ctx, "")
	if err != nil {
		return s.out.Fail(err)
	}
	r.Database = database

	s.out.VerboseLog("%s", r.Statement)
	if _, err := q.Exec(ctx, r.Statement); err != nil {
		return s.out.Fail(WrapExitError(ExitFailure, "", r.Action, ormerr.Execution(r.Table, r.Action, err)))
	}
	s.logger.Info("table altered", "action", r.Action, "table", r.Table, "database", database)
	return s.out.Success(r)
}
