package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
	"github.com/roach88/rowmap/internal/queryir"
	"github.com/roach88/rowmap/internal/querysql"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Where      string
	Args       []string
	OrderKey   string
	Descending bool
	Limit      int
}

// RowSet is a query result. JSON output is canonical: keys sorted, blobs
// base64.
type RowSet []ir.Row

// MarshalJSON implements json.Marshaler.
func (r RowSet) MarshalJSON() ([]byte, error) {
	return ir.MarshalCanonical([]ir.Row(r))
}

// RenderText writes an aligned table with a header row.
func (r RowSet) RenderText(w io.Writer) error {
	if len(r) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(r[0].Columns, "\t"))
	for _, row := range r {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(r))
	return err
}

func formatValue(v ir.Value) string {
	switch val := v.(type) {
	case nil, ir.Null:
		return "NULL"
	case ir.Int:
		return strconv.FormatInt(int64(val), 10)
	case ir.Real:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case ir.Text:
		return string(val)
	case ir.Blob:
		return "x'" + hex.EncodeToString(val) + "'"
	default:
		return fmt.Sprint(val)
	}
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Print rows of a table",
		Long: `Print rows of a table, optionally filtered and ordered.

--where is trusted SQL; pass values with --arg, one per ? placeholder.

Example:
  rowmap select songs --where "rating > ?" --arg 3 --order rating --desc --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Where, "where", "", "trusted SQL filter")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "value for a ? placeholder in --where (repeatable)")
	cmd.Flags().StringVar(&opts.OrderKey, "order", "", "column to order by")
	cmd.Flags().BoolVar(&opts.Descending, "desc", false, "order descending")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (0 = no limit)")

	return cmd
}

func runSelect(opts *SelectOptions, cmd *cobra.Command, table string) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	st := queryir.Statement{
		Kind:       queryir.KindSelect,
		Table:      table,
		OrderKey:   opts.OrderKey,
		Descending: opts.Descending,
		Limit:      opts.Limit,
	}
	if strings.TrimSpace(opts.Where) != "" {
		args := make([]any, len(opts.Args))
		for i, a := range opts.Args {
			args[i] = a
		}
		st.Where = queryir.Raw(opts.Where, args...)
	} else if len(opts.Args) > 0 {
		return s.out.Fail(WrapExitError(ExitCommandError, ErrCodeGeneric, "--arg given without --where", nil))
	}

	sql, params, err := querysql.Compile(st)
	if err != nil {
		return s.out.Fail(WrapExitError(ExitCommandError, ErrCodeGeneric, "invalid select", err))
	}
	s.out.VerboseLog("%s %v", sql, params)

	ctx := cmd.Context()
	q, _, err := s.queue(ctx, "")
	if err != nil {
		return s.out.Fail(err)
	}
	rows, err := q.Query(ctx, sql, params...)
	if err != nil {
		return s.out.Fail(WrapExitError(ExitFailure, "", "select", ormerr.Execution(table, "select", err)))
	}
	return s.out.Success(RowSet(rows))
}
