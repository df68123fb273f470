package schemaspec

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// ParseCUE compiles the `table` struct of a CUE source:
//
//	table: songs: {
//		database: "music.sqlite"
//		columns: [{name: "id", type: "INTEGER", unique: true}]
//		constraints: "UNIQUE(id)"
//	}
func ParseCUE(data []byte, filename string) ([]Table, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	return tablesFromValue(v)
}

// LoadCUEDir loads every .cue file of the package in dir.
func LoadCUEDir(dir string) ([]Table, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}
	return tablesFromValue(cuecontext.New().BuildInstance(inst))
}

func loadCUEFile(path string) ([]Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseCUE(data, path)
}

func tablesFromValue(v cue.Value) ([]Table, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &DeclError{Field: "table", Message: "no table declarations found"}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []TableDecl
	for iter.Next() {
		d, err := tableDecl(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return compileAll(decls)
}

func tableDecl(name string, v cue.Value) (TableDecl, error) {
	d := TableDecl{Name: name}

	var err error
	if d.Database, err = optionalString(v, "database"); err != nil {
		return d, err
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return d, &DeclError{Table: name, Field: "columns", Message: "columns are required", Pos: position(v.Pos())}
	}
	colIter, err := colsVal.List()
	if err != nil {
		return d, formatCUEError(err)
	}
	for colIter.Next() {
		c, err := columnDecl(colIter.Value())
		if err != nil {
			return d, err
		}
		d.Columns = append(d.Columns, c)
	}

	// Constraints are a single string or a list of strings.
	consVal := v.LookupPath(cue.ParsePath("constraints"))
	if consVal.Exists() {
		if s, err := consVal.String(); err == nil {
			d.Constraints = []string{s}
		} else {
			consIter, err := consVal.List()
			if err != nil {
				return d, &DeclError{Table: name, Field: "constraints",
					Message: "must be a string or list of strings", Pos: position(consVal.Pos())}
			}
			for consIter.Next() {
				s, err := consIter.Value().String()
				if err != nil {
					return d, formatCUEError(err)
				}
				d.Constraints = append(d.Constraints, s)
			}
		}
	}
	return d, nil
}

func columnDecl(v cue.Value) (ColumnDecl, error) {
	var c ColumnDecl
	var err error
	if c.Name, err = optionalString(v, "name"); err != nil {
		return c, err
	}
	if c.Type, err = optionalString(v, "type"); err != nil {
		return c, err
	}
	if c.PrimaryKey, err = optionalBool(v, "primary_key"); err != nil {
		return c, err
	}
	if c.Unique, err = optionalBool(v, "unique"); err != nil {
		return c, err
	}
	if c.NotNull, err = optionalBool(v, "not_null"); err != nil {
		return c, err
	}
	return c, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &DeclError{Field: "cue", Message: first.Error(), Pos: position(positions[0])}
	}
	return err
}

func position(p token.Pos) string {
	if !p.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename(), p.Line(), p.Column())
}
