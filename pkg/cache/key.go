package cache

import (
	"net/url"
	"strings"
)

// KeyPrefix prefixes every cache key.
const KeyPrefix = "bookscout:catalog"

// Key identifies a cached catalog response.
type Key struct {
	// Provider is the catalog provider name.
	Provider string
	// Kind is the resource type, e.g. "volume".
	Kind string
	// ID is the provider's resource id.
	ID string
}

// VolumeKey returns the key of a provider volume.
func VolumeKey(provider, id string) Key {
	return Key{Provider: provider, Kind: "volume", ID: id}
}

// String renders the Redis key: bookscout:catalog:<provider>:<kind>:<id>.
// The id is path-escaped so provider ids containing ':' or '/' stay
// unambiguous.
func (k Key) String() string {
	return strings.Join([]string{KeyPrefix, k.Provider, k.Kind, url.PathEscape(k.ID)}, ":")
}
