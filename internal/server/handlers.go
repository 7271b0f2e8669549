package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/book-search-client/internal/auth"
	"github.com/Sternrassler/book-search-client/pkg/browse"
	"github.com/Sternrassler/book-search-client/pkg/catalog"
	"github.com/Sternrassler/book-search-client/pkg/engine"
	"github.com/Sternrassler/book-search-client/pkg/shelf"
	"github.com/gorilla/schema"
)

// maxWait bounds ?wait=true on session reads.
const maxWait = 10 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type shelvesResponse struct {
	Shelves []browse.Shelf `json:"shelves"`
	Error   string         `json:"error,omitempty"`
}

func (s *Server) handleShelves(w http.ResponseWriter, r *http.Request) {
	shelves, err := s.deps.Shelves.Shelves(r.Context())
	if err != nil && len(shelves) == 0 {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	resp := shelvesResponse{Shelves: shelves}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// sessionResponse is what every session endpoint returns.
type sessionResponse struct {
	ID       string      `json:"id"`
	Location string      `json:"location"`
	Accepted *bool       `json:"accepted,omitempty"`
	View     engine.View `json:"view"`
}

func newSessionResponse(sess *session, view engine.View) sessionResponse {
	return sessionResponse{
		ID:       sess.id,
		Location: sess.location.Location(),
		View:     view,
	}
}

// readOptions are the query parameters accepted by session reads.
type readOptions struct {
	Wait bool `schema:"wait"`
}

func decodeReadOptions(r *http.Request) (readOptions, error) {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	var opts readOptions
	err := decoder.Decode(&opts, r.URL.Query())
	return opts, err
}

// sessionView returns the session's view, waiting for it to settle if the
// request asks for it.
func sessionView(r *http.Request, sess *session, opts readOptions) engine.View {
	if !opts.Wait {
		return sess.engine.View()
	}
	ctx, cancel := context.WithTimeout(r.Context(), maxWait)
	defer cancel()
	v, _ := sess.engine.WaitSettled(ctx)
	return v
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeReadOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	location := r.URL.Query()
	location.Del("wait")
	sess, err := s.sessions.create(r.Context(), location.Encode())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess, sessionView(r, sess, opts)))
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	opts, err := decodeReadOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess, sessionView(r, sess, opts)))
}

type queryRequest struct {
	Text string `json:"text"`
	// Immediate skips the quiet interval.
	Immediate bool `json:"immediate"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Immediate {
		sess.engine.SetQuery(req.Text)
	} else {
		sess.engine.OnQueryChange(req.Text)
	}
	writeJSON(w, http.StatusAccepted, newSessionResponse(sess, sess.engine.View()))
}

type pageRequest struct {
	Page int `json:"page"`
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	accepted := sess.engine.OnPageRequest(req.Page)
	resp := newSessionResponse(sess, sess.engine.View())
	resp.Accepted = &accepted
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type libraryResponse struct {
	Items []catalog.Item `json:"items"`
}

func (s *Server) handleAddToLibrary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var item catalog.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.deps.Library.Add(r.Context(), userID, shelf.Entry{ID: item.ID})
	switch {
	case errors.Is(err, shelf.ErrInvalidEntry):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Adding to library failed")
		writeError(w, http.StatusInternalServerError, "library unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleListLibrary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	entries, err := s.deps.Library.List(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Listing library failed")
		writeError(w, http.StatusInternalServerError, "library unavailable")
		return
	}

	items := make([]catalog.Item, 0, len(entries))
	if s.deps.Resolver != nil {
		items, err = s.deps.Resolver.Resolve(r.Context(), entries)
		if err != nil {
			writeError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
	} else {
		for _, e := range entries {
			items = append(items, catalog.Item{ID: e.ID})
		}
	}
	writeJSON(w, http.StatusOK, libraryResponse{Items: items})
}

func (s *Server) handleRemoveFromLibrary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	err := s.deps.Library.Remove(r.Context(), userID, r.PathValue("id"))
	switch {
	case errors.Is(err, shelf.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Removing from library failed")
		writeError(w, http.StatusInternalServerError, "library unavailable")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleLibraryDisabled(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusServiceUnavailable, "library is not configured")
}
