// Package queryir is the intermediate representation between the mapping
// façade and the SQL builder.
//
// A Statement describes one SQL operation against one table: schema changes
// (create, alter, drop, rename), writes (the three insert forms, update,
// delete) and reads (select, count, table metadata). Row filters are
// Predicate trees.
//
//	[Mapper] → [Statement] → [querysql.Compile] → (sql, params)
//
// SEALED INTERFACES:
//
// Predicate is sealed with a marker method. Only types in this package
// implement it, so the SQL builder can switch over every case:
//
//	switch p := pred.(type) {
//	case Compare:
//	case In:
//	case IsNull:
//	case And, Or, Not:
//	case Trusted:
//	}
//
// PARAMETERS:
//
// Values carried by Compare and In are always bound as `?` parameters.
// Trusted is the single escape hatch: its SQL is emitted verbatim and only
// its Args are bound. Callers must never build Trusted.SQL from untrusted
// input.
//
// NIL MEANS ALL ROWS:
//
// A nil Where on a select, count, update or delete matches every row. This
// is intentional and not validated away.
package queryir
