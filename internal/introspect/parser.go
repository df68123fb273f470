package introspect

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/rowmap/internal/ir"
	"github.com/roach88/rowmap/internal/ormerr"
)

// columnList is the grammar of an explicit column description:
//
//	id INTEGER PRIMARY KEY, title TEXT NOT NULL, UNIQUE(title, album)
//
// Each entry is either a table constraint or a column definition. Commas
// inside parentheses belong to the enclosing group.
type columnList struct {
	Entries []*columnEntry `( @@ ","? )+`
}

type columnEntry struct {
	Pos lexer.Position

	Constraint *tableConstraint `  @@`
	Column     *columnDef       `| @@`
}

type tableConstraint struct {
	Name string  `( "CONSTRAINT" @( Ident | QuotedIdent ) )?`
	Kind string  `@( "PRIMARY" | "UNIQUE" | "CHECK" | "FOREIGN" )`
	Body []*term `@@*`
}

type columnDef struct {
	Name string  `@( Ident | QuotedIdent )`
	Body []*term `@@*`
}

type term struct {
	Group *group `  @@`
	Word  string `| @( Ident | QuotedIdent | String | Number | Other )`
}

type group struct {
	Items []*groupItem `"(" @@* ")"`
}

type groupItem struct {
	Group *group `  @@`
	Word  string `| @( Ident | QuotedIdent | String | Number | Other | "," )`
}

var descriptionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`[^`]*`" + `|\[[^\]]*\]`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Other", Pattern: `[^\s(),]`},
})

var descriptionParser = participle.MustBuild[columnList](
	participle.Lexer(descriptionLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(2),
)

// Words that end the declared type of a column definition.
var constraintKeywords = map[string]bool{
	"CONSTRAINT": true,
	"PRIMARY":    true,
	"NOT":        true,
	"NULL":       true,
	"UNIQUE":     true,
	"CHECK":      true,
	"DEFAULT":    true,
	"COLLATE":    true,
	"REFERENCES": true,
	"GENERATED":  true,
	"AS":         true,
}

// parsedDescription is the result of parsing an explicit column description.
type parsedDescription struct {
	Columns     ir.Schema
	Constraints []string
}

// parseDescription parses an explicit column description into columns (in
// declaration order) and table-level constraint fragments.
//
// Every column must declare a type that maps to a storage class; otherwise
// the whole description is rejected with UNSUPPORTED_ATTRIBUTE_TYPE.
func parseDescription(table, desc string) (parsedDescription, error) {
	list, err := descriptionParser.ParseString(table, desc)
	if err != nil {
		return parsedDescription{}, ormerr.Configuration(table, "parse column description: %v", err)
	}

	var out parsedDescription
	for i, entry := range list.Entries {
		end := len(desc)
		if i+1 < len(list.Entries) {
			end = list.Entries[i+1].Pos.Offset
		}
		text := sourceText(desc, entry.Pos.Offset, end)

		if entry.Constraint != nil {
			out.Constraints = append(out.Constraints, text)
			continue
		}

		name := unquoteIdent(entry.Column.Name)
		if out.Columns.Has(name) {
			return parsedDescription{}, ormerr.Configuration(table, "column %q declared twice", name)
		}

		declared := declaredType(entry.Column.Body)
		class, ok := ClassForDeclaredType(declared)
		if !ok {
			if declared == "" {
				return parsedDescription{}, ormerr.UnsupportedType(name, "column %q has no declared type", name)
			}
			return parsedDescription{}, ormerr.UnsupportedType(name, "declared type %q has no storage class", declared)
		}

		out.Columns = append(out.Columns, ir.Column{
			Name:       name,
			Class:      class,
			Definition: text,
		})
	}

	if len(out.Columns) == 0 {
		return parsedDescription{}, ormerr.Configuration(table, "column description declares no columns")
	}
	return out, nil
}

// sourceText returns the verbatim text of one entry without its separator.
func sourceText(src string, start, end int) string {
	text := strings.TrimSpace(src[start:end])
	return strings.TrimSpace(strings.TrimSuffix(text, ","))
}

// declaredType returns the leading type words of a column body, e.g.
// "VARCHAR" for "VARCHAR(20) NOT NULL" and "UNSIGNED BIG INT" for itself.
func declaredType(body []*term) string {
	var words []string
	for _, t := range body {
		if t.Group != nil || constraintKeywords[strings.ToUpper(t.Word)] {
			break
		}
		if !isTypeWord(t.Word) {
			break
		}
		words = append(words, strings.ToUpper(t.Word))
	}
	return strings.Join(words, " ")
}

func isTypeWord(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// ClassForDeclaredType maps a declared SQL type name to a storage class
// using SQLite's affinity rules, extended with date and boolean names.
func ClassForDeclaredType(declared string) (ir.StorageClass, bool) {
	t := strings.ToUpper(strings.TrimSpace(declared))
	switch {
	case t == "":
		return 0, false
	case strings.Contains(t, "INT"), strings.HasPrefix(t, "BOOL"):
		return ir.ClassInteger, true
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return ir.ClassText, true
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return ir.ClassText, true
	case strings.Contains(t, "BLOB"):
		return ir.ClassBlob, true
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"),
		strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"):
		return ir.ClassReal, true
	}
	return 0, false
}

func unquoteIdent(s string) string {
	if len(s) < 2 {
		return s
	}
	switch {
	case s[0] == '"' && s[len(s)-1] == '"':
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	case s[0] == '`' && s[len(s)-1] == '`', s[0] == '[' && s[len(s)-1] == ']':
		return s[1 : len(s)-1]
	}
	return s
}
