package routes

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// Table is an ordered, immutable route table. It is safe for concurrent use.
type Table struct {
	records  []Record
	byName   map[string]int
	router   *mux.Router
	routes   []*mux.Route
	matchers []matcher
}

// matcher is the case-insensitive form of one compiled mux path pattern.
type matcher struct {
	re     *regexp.Regexp
	vars   []string
	groups []int
}

func newMatcher(route *mux.Route) (matcher, error) {
	pattern, err := route.GetPathRegexp()
	if err != nil {
		return matcher{}, err
	}
	vars, err := route.GetVarNames()
	if err != nil {
		return matcher{}, err
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return matcher{}, err
	}

	m := matcher{re: re, vars: vars, groups: make([]int, len(vars))}
	for i := range vars {
		// mux names the group of the i-th variable "v<i>".
		m.groups[i] = re.SubexpIndex("v" + strconv.Itoa(i))
	}
	return m, nil
}

// NewTable validates records and compiles them into a [Table].
//
// Validation rejects empty or relative paths, patterns mux cannot compile,
// unnamed non-redirect records, duplicate names, duplicate patterns, a missing
// or misplaced wildcard, and redirects that do not land on a concrete record.
func NewTable(records []Record) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	t := &Table{
		records:  make([]Record, len(records)),
		byName:   make(map[string]int, len(records)),
		router:   mux.NewRouter(),
		routes:   make([]*mux.Route, len(records)),
		matchers: make([]matcher, len(records)),
	}
	copy(t.records, records)

	paths := make(map[string]int, len(records))
	wildcard := -1

	for i, rec := range t.records {
		if rec.Path == "" || !strings.HasPrefix(rec.Path, "/") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, rec.Path)
		}
		if rec.IsWildcard() {
			if wildcard >= 0 {
				return nil, fmt.Errorf("%w: %q declared twice", ErrDuplicatePath, rec.Path)
			}
			wildcard = i
		}
		key := strings.ToLower(rec.Path)
		if prev, ok := paths[key]; ok {
			return nil, fmt.Errorf("%w: %q at %d and %d", ErrDuplicatePath, rec.Path, prev, i)
		}
		paths[key] = i

		if rec.IsRedirect() {
			if rec.Component != (Component{}) {
				return nil, fmt.Errorf("%w: redirect %q must not bind a component", ErrRedirectTarget, rec.Path)
			}
		} else if rec.Name == "" {
			return nil, fmt.Errorf("%w: %q", ErrMissingName, rec.Path)
		}
		if rec.Name != "" {
			if prev, ok := t.byName[rec.Name]; ok {
				return nil, fmt.Errorf("%w: %q at %d and %d", ErrDuplicateName, rec.Name, prev, i)
			}
			t.byName[rec.Name] = i
		}

		route := t.router.NewRoute().Path(rec.Path).Name(strconv.Itoa(i))
		if err := route.GetError(); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, rec.Path, err)
		}
		t.routes[i] = route

		m, err := newMatcher(route)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, rec.Path, err)
		}
		t.matchers[i] = m
	}

	if wildcard < 0 {
		return nil, ErrWildcardMissing
	}
	if wildcard != len(t.records)-1 {
		return nil, fmt.Errorf("%w: found at %d of %d", ErrWildcardNotLast, wildcard, len(t.records))
	}

	for _, rec := range t.records {
		if !rec.IsRedirect() {
			continue
		}
		target := t.Resolve(rec.Redirect)
		if target.NotFound() || target.Record.IsRedirect() {
			return nil, fmt.Errorf("%w: %q -> %q", ErrRedirectTarget, rec.Path, rec.Redirect)
		}
	}

	return t, nil
}

// MustNewTable is like [NewTable] but panics on invalid input. It is meant for
// package-level tables built from literals.
func MustNewTable(records []Record) *Table {
	t, err := NewTable(records)
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve returns the first record whose pattern matches path. Matching is
// case-insensitive, query strings and fragments are ignored, and a trailing
// slash is dropped. Match.Path and parameter values keep the caller's case.
// When nothing else matches, the wildcard record is returned, so Resolve
// never fails.
func (t *Table) Resolve(path string) Match {
	clean := NormalizePath(path)

	idx := len(t.records) - 1
	params := make(map[string]string)
	for i, m := range t.matchers {
		sub := m.re.FindStringSubmatch(clean)
		if sub == nil {
			continue
		}
		idx = i
		for j, name := range m.vars {
			if g := m.groups[j]; g > 0 && g < len(sub) {
				params[name] = sub[g]
			}
		}
		break
	}

	return Match{
		Record: t.records[idx],
		Path:   clean,
		Params: params,
	}
}

// ByName returns the record declared under name.
func (t *Table) ByName(name string) (Record, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// PathFor builds the concrete path of a named route, substituting params into
// the pattern's variables.
func (t *Table) PathFor(name string, params map[string]string) (string, error) {
	i, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, params[k])
	}

	u, err := t.routes[i].URLPath(pairs...)
	if err != nil {
		return "", fmt.Errorf("build path for %q: %w", name, err)
	}
	return u.Path, nil
}

// NotFound returns the catch-all record.
func (t *Table) NotFound() Record {
	return t.records[len(t.records)-1]
}

// Records returns a copy of the records in declaration order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// NormalizePath strips query and fragment, ensures a leading slash, and drops
// a trailing slash on anything but the root.
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
