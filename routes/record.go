package routes

// WildcardPath is the catch-all pattern. It matches every path, including "/".
const WildcardPath = "/{pathMatch:.*}"

// Meta carries the access flags attached to a route.
type Meta struct {
	RequiresAuth bool
	GuestOnly    bool
	TitleKey     string
}

// Component references the view bound to a route. Lazy views are loaded on
// first navigation by the host; the table never dereferences them.
type Component struct {
	View string
	Lazy bool
}

// Record is a single route declaration. Records are values; a [Table] hands out
// copies so callers cannot mutate the table.
type Record struct {
	Path      string
	Name      string
	Component Component
	// Redirect, when set, names the path this record forwards to. Redirect
	// records have no component and their meta is not consulted by the guard.
	Redirect string
	Meta     Meta
}

// IsWildcard reports whether r is the catch-all record.
func (r Record) IsWildcard() bool {
	return r.Path == WildcardPath
}

// IsRedirect reports whether r forwards to another path.
func (r Record) IsRedirect() bool {
	return r.Redirect != ""
}

// Match is a resolved navigation target.
type Match struct {
	Record Record
	// Path is the normalized path that was resolved.
	Path   string
	Params map[string]string
}

// NotFound reports whether the match fell through to the catch-all record.
func (m Match) NotFound() bool {
	return m.Record.IsWildcard()
}
