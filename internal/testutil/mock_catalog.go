// Package testutil provides testing utilities for the book search client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines a canned response for a search query or volume.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// SearchCall records one search request received by the mock.
type SearchCall struct {
	Query      string
	StartIndex int
	MaxResults int
}

// MockCatalog is a configurable mock of the Google Books volumes API.
//
// Queries registered with SetTotal answer with generated volumes whose ids
// are "<query>-<n>" (spaces replaced by underscores), so any page of any
// registered query can be requested. Unregistered queries have no results.
type MockCatalog struct {
	server *httptest.Server

	mu        sync.RWMutex
	totals    map[string]int
	delays    map[string]time.Duration
	overrides map[string]MockResponse
	volumes   map[string]string
	calls     []SearchCall
	lookups   []string

	lookupCacheControl string
	notModified        int

	RequestCount int
}

// NewMockCatalog creates and starts a new mock catalog server.
func NewMockCatalog() *MockCatalog {
	m := &MockCatalog{
		totals:    make(map[string]int),
		delays:    make(map[string]time.Duration),
		overrides: make(map[string]MockResponse),
		volumes:   make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/volumes", m.handleSearch)
	mux.HandleFunc("/volumes/", m.handleLookup)
	m.server = httptest.NewServer(mux)

	return m
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// SetTotal registers query with total matching volumes.
func (m *MockCatalog) SetTotal(query string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[query] = total
}

// SetDelay delays every search response for query.
func (m *MockCatalog) SetDelay(query string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[query] = d
}

// SetSearchResponse replaces the generated response for query.
func (m *MockCatalog) SetSearchResponse(query string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[query] = resp
}

// SetVolume registers the JSON body returned by /volumes/{id}.
func (m *MockCatalog) SetVolume(id, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes[id] = body
}

// SetLookupCacheControl sets the Cache-Control header sent with volumes.
func (m *MockCatalog) SetLookupCacheControl(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupCacheControl = v
}

// NotModifiedCount returns how many lookups were answered with 304.
func (m *MockCatalog) NotModifiedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notModified
}

// Calls returns the search requests received so far.
func (m *MockCatalog) Calls() []SearchCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]SearchCall(nil), m.calls...)
}

// Lookups returns the volume ids requested so far.
func (m *MockCatalog) Lookups() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.lookups...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.calls = nil
	m.lookups = nil
	m.notModified = 0
}

func (m *MockCatalog) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	call := SearchCall{Query: params.Get("q")}
	call.StartIndex, _ = strconv.Atoi(params.Get("startIndex"))
	call.MaxResults, _ = strconv.Atoi(params.Get("maxResults"))
	if call.MaxResults <= 0 {
		call.MaxResults = 10
	}

	m.mu.Lock()
	m.RequestCount++
	m.calls = append(m.calls, call)
	total := m.totals[call.Query]
	delay := m.delays[call.Query]
	override, hasOverride := m.overrides[call.Query]
	m.mu.Unlock()

	if hasOverride {
		writeMock(w, r, override)
		return
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(VolumesPage(call.Query, total, call.StartIndex, call.MaxResults))
}

func (m *MockCatalog) handleLookup(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/volumes/")

	m.mu.Lock()
	m.RequestCount++
	m.lookups = append(m.lookups, id)
	body, ok := m.volumes[id]
	cacheControl := m.lookupCacheControl
	etag := fmt.Sprintf(`"%s-%d"`, id, len(body))
	notModified := ok && r.Header.Get("If-None-Match") == etag
	if notModified {
		m.notModified++
	}
	m.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"code": 404, "message": "The volume ID could not be found."}}`))
		return
	}

	w.Header().Set("ETag", etag)
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	if notModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write([]byte(body))
}

func writeMock(w http.ResponseWriter, r *http.Request, resp MockResponse) {
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// VolumeID returns the generated id of the n-th (0-based) volume of query.
func VolumeID(query string, n int) string {
	return fmt.Sprintf("%s-%d", strings.ReplaceAll(query, " ", "_"), n)
}

// VolumesPage builds a Google Books search response for a window of a
// query with total results.
func VolumesPage(query string, total, startIndex, maxResults int) map[string]any {
	resp := map[string]any{
		"kind":       "books#volumes",
		"totalItems": total,
	}

	var items []map[string]any
	for n := startIndex; n < total && n < startIndex+maxResults; n++ {
		items = append(items, Volume(VolumeID(query, n), fmt.Sprintf("%s volume %d", query, n)))
	}
	if len(items) > 0 {
		resp["items"] = items
	}
	return resp
}

// Volume builds a single Google Books volume object.
func Volume(id, title string) map[string]any {
	return map[string]any{
		"kind": "books#volume",
		"id":   id,
		"volumeInfo": map[string]any{
			"title":         title,
			"authors":       []string{"Frank Herbert"},
			"publishedDate": "1965",
			"pageCount":     412,
			"categories":    []string{"Fiction"},
			"imageLinks": map[string]any{
				"thumbnail": "http://books.google.com/books/content?id=" + id,
			},
		},
	}
}

// VolumeJSON returns Volume encoded as JSON.
func VolumeJSON(id, title string) string {
	data, _ := json.Marshal(Volume(id, title))
	return string(data)
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": {"code": 429, "message": "Quota exceeded"}}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfter),
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": {"code": 500, "message": "Backend Error"}}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 response whose body is not JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>gateway hiccup</html>`,
		Headers: map[string]string{
			"Content-Type": "text/html",
		},
	}
}
