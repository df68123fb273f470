package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmap/internal/migrate"
	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/schemaspec"
)

// TablePlan is the plan or migration outcome for one declared table.
type TablePlan struct {
	Table      string   `json:"table"`
	Database   string   `json:"database"`
	Create     bool     `json:"create"`
	Added      []string `json:"added,omitempty"`
	Statements []string `json:"statements"`
}

// PlanResult lists per-table plans in declaration order.
type PlanResult struct {
	Applied bool        `json:"applied"`
	Tables  []TablePlan `json:"tables"`
}

// RenderText writes one block per table.
func (r PlanResult) RenderText(w io.Writer) error {
	for _, t := range r.Tables {
		fmt.Fprintf(w, "-- %s (%s)\n", t.Table, t.Database)
		if len(t.Statements) == 0 {
			fmt.Fprintln(w, "-- up to date")
			continue
		}
		for _, s := range t.Statements {
			fmt.Fprintf(w, "%s;\n", s)
		}
	}
	return nil
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <schema-file>",
		Short: "Show the SQL a migration would run",
		Long: `Load table declarations and print, per table, the CREATE TABLE or
ALTER TABLE ... ADD COLUMN statements needed to bring the database in line.
Nothing is executed.

Example:
  rowmap plan ./schema.cue --db ./data/music.sqlite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd, args[0], false)
		},
	}
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <schema-file>",
		Short: "Create missing tables and add missing columns",
		Long: `Load table declarations and reconcile each table: create it when
missing, otherwise add the declared columns it lacks, one ALTER at a time.
Columns are never dropped. A failed ALTER stops the run; earlier ALTERs stay
applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd, args[0], true)
		},
	}
}

func runSchema(opts *RootOptions, cmd *cobra.Command, schemaPath string, apply bool) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	tables, err := schemaspec.Load(schemaPath)
	if err != nil {
		return s.out.Fail(WrapExitError(ExitCommandError, ErrCodeSchemaFile, "failed to load "+schemaPath, err))
	}
	s.out.VerboseLog("loaded %d table declaration(s) from %s", len(tables), schemaPath)

	ctx := cmd.Context()
	result := PlanResult{Applied: apply}
	for _, t := range tables {
		q, database, err := s.queue(ctx, t.Database)
		if err != nil {
			return s.out.Fail(err)
		}
		plan := TablePlan{Table: t.Name, Database: database, Statements: []string{}}

		if apply {
			res, err := migrate.Reconcile(ctx, q, t.Name, t.Columns, t.Constraints)
			if err != nil {
				s.logger.Error("migration failed", "table", t.Name, "applied", res.Added, "error", err)
				return s.out.Fail(WrapExitError(ExitFailure, "", "migrate "+t.Name, err))
			}
			plan.Create = res.Created
			plan.Added = res.Added
			plan.Statements = append(plan.Statements, res.Statements...)
			if res.Changed() {
				s.logger.Info("table migrated", "table", t.Name, "created", res.Created, "added", res.Added)
			}
		} else {
			exists, live, err := migrate.Inspect(ctx, q, t.Name)
			if err != nil {
				return s.out.Fail(WrapExitError(ExitFailure, "", "inspect "+t.Name, err))
			}
			plan.Create = !exists
			if exists {
				for _, c := range migrate.Plan(live, t.Columns) {
					plan.Added = append(plan.Added, c.Name)
				}
			}
			plan.Statements = append(plan.Statements, migrate.Statements(t.Name, exists, live, t.Columns, t.Constraints)...)
		}
		result.Tables = append(result.Tables, plan)
	}

	return s.out.Success(result)
}

// exitCodeFor classifies a mapping error for the process exit status.
func exitCodeFor(err error) int {
	if ormerr.IsConfiguration(err) || ormerr.IsUnsupportedType(err) {
		return ExitCommandError
	}
	return ExitFailure
}
