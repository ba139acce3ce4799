// Package authtest provides an in-process session service for tests.
package authtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-access/internal/auth"
)

type account struct {
	hash []byte
	user auth.User
}

// Server is a fake session service speaking the /session/* contract.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]account
	tokens   map[string]string

	flat        bool
	meStatus    int
	loginStatus int
	failLogout  bool

	meCalls     atomic.Int64
	loginCalls  atomic.Int64
	logoutCalls atomic.Int64
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
	}
	r := chi.NewRouter()
	r.Get("/session/me", s.me)
	r.Post("/session/login", s.login)
	r.Post("/session/logout", s.logout)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account. The user payload is served verbatim, so
// roles may be given with or without expanded permissions.
func (s *Server) AddUser(t testing.TB, password string, user auth.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[user.Username] = account{hash: hash, user: user}
}

// SetFlat serves users without the {"user": ...} wrapper.
func (s *Server) SetFlat(flat bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flat = flat
}

// SetMeStatus forces the status of /session/me; zero restores normal behaviour.
func (s *Server) SetMeStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meStatus = status
}

// SetLoginStatus forces the status of /session/login; zero restores normal behaviour.
func (s *Server) SetLoginStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginStatus = status
}

// SetFailLogout makes /session/logout answer 500.
func (s *Server) SetFailLogout(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLogout = fail
}

// Revoke invalidates every issued token.
func (s *Server) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// Calls reports how many times each endpoint was hit.
func (s *Server) Calls() (me, login, logout int64) {
	return s.meCalls.Load(), s.loginCalls.Load(), s.logoutCalls.Load()
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.meCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meStatus != 0 {
		http.Error(w, http.StatusText(s.meStatus), s.meStatus)
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	username, ok := s.tokens[token]
	if !ok {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	s.writeUser(w, "", s.accounts[username].user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginStatus != 0 {
		http.Error(w, http.StatusText(s.loginStatus), s.loginStatus)
		return
	}
	acct, ok := s.accounts[creds.Username]
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(creds.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	token := uuid.NewString()
	s.tokens[token] = creds.Username
	s.writeUser(w, token, acct.user)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.logoutCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLogout {
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	delete(s.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeUser(w http.ResponseWriter, token string, user auth.User) {
	w.Header().Set("Content-Type", "application/json")
	if s.flat {
		payload := map[string]any{}
		data, _ := json.Marshal(user)
		_ = json.Unmarshal(data, &payload)
		if token != "" {
			payload["token"] = token
		}
		_ = json.NewEncoder(w).Encode(payload)
		return
	}
	payload := map[string]any{"user": user}
	if token != "" {
		payload["token"] = token
	}
	_ = json.NewEncoder(w).Encode(payload)
}
