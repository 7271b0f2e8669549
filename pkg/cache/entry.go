package cache

import "time"

// Entry is one cached catalog response body.
type Entry struct {
	// Data is the raw response body.
	Data []byte `json:"data"`

	// ETag validates the entry with If-None-Match.
	ETag string `json:"etag,omitempty"`

	// LastModified validates the entry with If-Modified-Since.
	LastModified time.Time `json:"last_modified,omitempty"`

	// Expires is when the entry stops being fresh.
	Expires time.Time `json:"expires"`

	CachedAt time.Time `json:"cached_at"`
}

// IsExpired reports whether the entry needs revalidation.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// CanRevalidate reports whether a conditional request can be made for e.
func (e *Entry) CanRevalidate() bool {
	return e != nil && (e.ETag != "" || !e.LastModified.IsZero())
}
