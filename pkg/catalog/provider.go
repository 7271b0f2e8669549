package catalog

import (
	"fmt"
	"strings"
)

// Provider names accepted in Config.Provider.
const (
	ProviderGoogleBooks = "googlebooks"
	ProviderOpenLibrary = "openlibrary"
)

// provider knows the URL layout and JSON shape of one catalog API.
type provider interface {
	name() string
	defaultBaseURL() string
	searchPath(query string, offset, limit int, apiKey string) string
	decodeSearch(body []byte, offset int) ([]Item, error)
	lookupPath(id, apiKey string) string
	decodeLookup(body []byte) (Item, error)
}

func newProvider(name string) (provider, error) {
	switch strings.ToLower(name) {
	case "", ProviderGoogleBooks:
		return googleBooks{}, nil
	case ProviderOpenLibrary:
		return openLibrary{}, nil
	default:
		return nil, fmt.Errorf("unknown catalog provider %q", name)
	}
}
