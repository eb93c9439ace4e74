package routes

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// fileRoute is the on-disk shape of one [[route]] entry.
type fileRoute struct {
	Path         string `toml:"path"`
	Name         string `toml:"name"`
	View         string `toml:"view"`
	Lazy         bool   `toml:"lazy"`
	Redirect     string `toml:"redirect"`
	RequiresAuth bool   `toml:"requires_auth"`
	GuestOnly    bool   `toml:"guest_only"`
	TitleKey     string `toml:"title_key"`
}

type fileTable struct {
	Route []fileRoute `toml:"route"`
}

// Load decodes a TOML route document and builds a [Table] from it. Entries
// keep their document order:
//
//	[[route]]
//	path = "/login"
//	name = "Login"
//	view = "auth/LoginPage"
//	guest_only = true
func Load(r io.Reader) (*Table, error) {
	var doc fileTable
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode routes: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode routes: unknown key %q", undecoded[0].String())
	}

	records := make([]Record, 0, len(doc.Route))
	for _, fr := range doc.Route {
		rec := Record{
			Path:     fr.Path,
			Name:     fr.Name,
			Redirect: fr.Redirect,
			Meta: Meta{
				RequiresAuth: fr.RequiresAuth,
				GuestOnly:    fr.GuestOnly,
				TitleKey:     fr.TitleKey,
			},
		}
		if fr.View != "" {
			rec.Component = Component{View: fr.View, Lazy: fr.Lazy}
		}
		records = append(records, rec)
	}

	return NewTable(records)
}

// LoadFile reads a TOML route document from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open routes: %w", err)
	}
	defer f.Close()
	return Load(f)
}
