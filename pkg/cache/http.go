package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NewEntry builds an entry from a successful response. fallback is the
// lifetime used when the response carries no usable freshness headers.
func NewEntry(header http.Header, body []byte, fallback time.Duration) *Entry {
	now := time.Now()
	entry := &Entry{
		Data:     body,
		ETag:     header.Get("ETag"),
		Expires:  ExpiresAt(header, now, fallback),
		CachedAt: now,
	}
	if lm := header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			entry.LastModified = t
		}
	}
	return entry
}

// ExpiresAt derives the freshness deadline of a response received at now.
// Cache-Control max-age wins over Expires; no-store and no-cache make the
// response immediately stale.
func ExpiresAt(header http.Header, now time.Time, fallback time.Duration) time.Time {
	for _, directive := range strings.Split(header.Get("Cache-Control"), ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		switch {
		case directive == "no-store", directive == "no-cache":
			return now
		case strings.HasPrefix(directive, "max-age="):
			secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
			if err == nil && secs >= 0 {
				return now.Add(time.Duration(secs) * time.Second)
			}
		}
	}

	if v := header.Get("Expires"); v != "" {
		expires, err := http.ParseTime(v)
		if err != nil {
			// An invalid Expires means already expired.
			return now
		}
		if expires.Before(now) {
			return now
		}
		return expires
	}

	return now.Add(fallback)
}

// ConditionalHeaders returns the validator headers for revalidating entry.
// ETag is preferred over Last-Modified. Returns nil when entry has neither.
func ConditionalHeaders(entry *Entry) http.Header {
	if !entry.CanRevalidate() {
		return nil
	}
	h := http.Header{}
	if entry.ETag != "" {
		h.Set("If-None-Match", entry.ETag)
	} else {
		h.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
	}
	return h
}
