// Package stubapi is an in-memory stand-in for the SendGrid
// suppression API, used for local rehearsal of removal runs before
// pointing the tools at production credentials.
package stubapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/support-toolkit/internal/sendgrid"
)

// Store holds suppression entries per list, keyed by lowercased email.
type Store struct {
	mu    sync.RWMutex
	lists map[sendgrid.ListKind]map[string]sendgrid.Entry
}

// NewStore creates an empty store with every known list present.
func NewStore() *Store {
	s := &Store{lists: make(map[sendgrid.ListKind]map[string]sendgrid.Entry)}
	for _, kind := range sendgrid.AllKinds() {
		s.lists[kind] = make(map[string]sendgrid.Entry)
	}
	return s
}

// Add suppresses an address on one list.
func (s *Store) Add(kind sendgrid.ListKind, email, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[kind][strings.ToLower(email)] = sendgrid.Entry{
		Email:   email,
		Reason:  reason,
		Created: sendgrid.FlexTime{Time: time.Now().UTC()},
	}
}

// Get returns the entry for an address, if suppressed.
func (s *Store) Get(kind sendgrid.ListKind, email string) (sendgrid.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.lists[kind][strings.ToLower(email)]
	return e, ok
}

// Delete removes an address from one list, reporting whether it was there.
func (s *Store) Delete(kind sendgrid.ListKind, email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	_, ok := s.lists[kind][key]
	delete(s.lists[kind], key)
	return ok
}

// Page returns a slice of one list ordered by email.
func (s *Store) Page(kind sendgrid.ListKind, limit, offset int) []sendgrid.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.lists[kind]))
	for k := range s.lists[kind] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if offset >= len(keys) {
		return []sendgrid.Entry{}
	}
	end := offset + limit
	if limit <= 0 || end > len(keys) {
		end = len(keys)
	}

	out := make([]sendgrid.Entry, 0, end-offset)
	for _, k := range keys[offset:end] {
		out = append(out, s.lists[kind][k])
	}
	return out
}

// Server wires the store behind the suppression API's routes.
type Server struct {
	store  *Store
	apiKey string
}

// NewServer creates a stub server. Requests must carry the given
// bearer key; everything else is answered 401.
func NewServer(store *Store, apiKey string) *Server {
	return &Server{store: store, apiKey: apiKey}
}

// Router builds the chi router with the API surface the tools use.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.authMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "sendgrid-stub"})
	})

	for _, kind := range sendgrid.AllKinds() {
		kind := kind
		r.Route(kind.Path(), func(r chi.Router) {
			r.Get("/", s.handleList(kind))
			r.Get("/{email}", s.handleGet(kind))
			r.Post("/{email}", s.handleAdd(kind))
			r.Delete("/{email}", s.handleDelete(kind))
		})
	}
	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(kind sendgrid.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if limit <= 0 {
			limit = 500
		}
		writeJSON(w, http.StatusOK, s.store.Page(kind, limit, offset))
	}
}

func (s *Server) handleGet(kind sendgrid.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		entry, ok := s.store.Get(kind, email)
		if !ok {
			// Mirror the real API's absent-address answer: 200 with an
			// empty array, not a 404.
			writeJSON(w, http.StatusOK, []sendgrid.Entry{})
			return
		}
		writeJSON(w, http.StatusOK, []sendgrid.Entry{entry})
	}
}

func (s *Server) handleAdd(kind sendgrid.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		reason := r.URL.Query().Get("reason")
		if reason == "" {
			reason = "stub entry"
		}
		s.store.Add(kind, email, reason)
		writeJSON(w, http.StatusCreated, map[string]string{"email": email})
	}
}

func (s *Server) handleDelete(kind sendgrid.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		if !s.store.Delete(kind, email) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
