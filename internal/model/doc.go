// Package model defines the closure-table types for the category taxonomy.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal.
//
// Key design constraints:
//   - A category's direct parent is never stored; it is derived from
//     category_path rows at query time
//   - Every existing category owns exactly one reflexive path (c, c)
//   - Category IDs are assigned by the store and never reused
//   - All JSON tags use snake_case
package model
