// Package routes holds the declarative route table: an ordered list of immutable
// records mapping path patterns to views and access metadata.
//
// # Matching
//
// Resolution is first-match-wins in declaration order. The table does not rank
// patterns by specificity, so literal routes must be declared before any
// parameterized route that would shadow them. The catch-all [WildcardPath]
// record must be declared last; it makes [Table.Resolve] total. Matching
// ignores case, so "/MESX" resolves to the "/mesx" record and two patterns
// differing only in case are duplicates.
//
// Patterns use gorilla/mux template syntax: "/login", "/items/{id}",
// "/{name:regex}".
//
// # What this package must NOT do
//
//   - Import navguard or consult authentication state.
//   - Render or load views; [Component] is an opaque reference.
package routes
