package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/migrate"
	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/querysql"
)

// TableInfo describes one live table.
type TableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// TablesResult lists the tables of one database.
type TablesResult struct {
	Database string      `json:"database"`
	Tables   []TableInfo `json:"tables"`
}

// RenderText writes one line per table.
func (r TablesResult) RenderText(w io.Writer) error {
	if len(r.Tables) == 0 {
		_, err := fmt.Fprintf(w, "no tables in %s\n", r.Database)
		return err
	}
	for _, t := range r.Tables {
		if _, err := fmt.Fprintf(w, "%s: %s\n", t.Name, strings.Join(t.Columns, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(rootOpts, cmd)
		},
	}
}

func runTables(opts *RootOptions, cmd *cobra.Command) error {
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

	rows, err := q.Query(ctx, querysql.ListTables())
	if err != nil {
		return s.out.Fail(WrapExitError(ExitFailure, "", "list tables", ormerr.Execution("", "list tables", err)))
	}

	result := TablesResult{Database: database, Tables: []TableInfo{}}
	for _, row := range rows {
		v, _ := row.Get("name")
		name, ok := v.(ir.Text)
		if !ok {
			continue
		}
		cols, err := migrate.LiveColumns(ctx, q, string(name))
		if err != nil {
			return s.out.Fail(WrapExitError(exitCodeFor(err), "", "read columns of "+string(name), err))
		}
		result.Tables = append(result.Tables, TableInfo{Name: string(name), Columns: cols})
	}
	return s.out.Success(result)
}
