// Package ir provides the storage-side value and schema types for rowmap.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the storage model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Every value crossing the SQL boundary is an ir.Value: exactly one of
//     Null, Int, Real, Text or Blob (the four SQLite storage classes plus NULL)
//   - Column order inside a Schema is significant and preserved everywhere
//   - Time values are stored as TEXT in TimeLayout (fixed width, sortable)
package ir
