// Package firebasetest provides an in-memory Firebase App Distribution API,
// including the OAuth token endpoint, for tests.
package firebasetest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Release is a release served by Server
type Release struct {
	ID             string
	DisplayVersion string
	BuildVersion   string
	Notes          *string // nil omits releaseNotes entirely
	CreateTime     string
	Binary         []byte
}

// Notes returns a pointer to s for Release.Notes
func Notes(s string) *string {
	return &s
}

// Server is a fake App Distribution API backed by httptest.Server
type Server struct {
	*httptest.Server

	ProjectNumber string
	AppID         string
	Token         string

	mu            sync.Mutex
	releases      []Release // newest first
	rejectToken   bool
	denyAccess    bool
	tokenRequests int
	listRequests  int
}

// NewServer starts a fake API serving releases of one app. It is closed on test cleanup.
func NewServer(t testing.TB, projectNumber, appID string, releases ...Release) *Server {
	t.Helper()

	s := &Server{
		ProjectNumber: projectNumber,
		AppID:         appID,
		Token:         "test-access-token",
		releases:      releases,
	}

	router := chi.NewRouter()
	router.Post("/token", s.handleToken)
	router.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/v1/projects/{project}/apps/{app}/releases", s.handleList)
		r.Get("/v1/projects/{project}/apps/{app}/releases/{release}", s.handleGet)
		r.Get("/download/{release}", s.handleDownload)
	})

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the API base URL to pass to the client
func (s *Server) Endpoint() string {
	return s.URL + "/"
}

// SetRejectToken makes the token endpoint answer invalid_grant
func (s *Server) SetRejectToken(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectToken = reject
}

// SetDenyAccess makes the API answer 403 for a valid token
func (s *Server) SetDenyAccess(deny bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denyAccess = deny
}

// TokenRequests returns how many tokens were issued or refused
func (s *Server) TokenRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenRequests
}

// ListRequests returns how many release pages were served
func (s *Server) ListRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRequests
}

// ServiceAccountKey returns a freshly generated service account JSON key
// whose token_uri points at s
func (s *Server) ServiceAccountKey(t testing.TB) []byte {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal RSA key: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	raw, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "test-project",
		"private_key_id": "test-key-id",
		"private_key":    string(keyPEM),
		"client_email":   "fetcher@test-project.iam.gserviceaccount.com",
		"client_id":      "1234567890",
		"token_uri":      s.URL + "/token",
	})
	if err != nil {
		t.Fatalf("failed to marshal service account key: %v", err)
	}
	return raw
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.tokenRequests++
	reject := s.rejectToken
	s.mu.Unlock()

	if err := r.ParseForm(); err != nil || r.PostForm.Get("assertion") == "" || reject {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid JWT Signature.",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.Token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeAPIError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Request had invalid authentication credentials.")
			return
		}
		s.mu.Lock()
		deny := s.denyAccess
		s.mu.Unlock()

		if deny {
			writeAPIError(w, http.StatusForbidden, "PERMISSION_DENIED", "The caller does not have permission")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if !s.isApp(r) {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "App not found")
		return
	}

	s.mu.Lock()
	s.listRequests++
	releases := s.releases
	s.mu.Unlock()

	start := 0
	if token := r.URL.Query().Get("pageToken"); token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(releases) {
			writeAPIError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid page token")
			return
		}
		start = n
	}

	size := 0
	if v := r.URL.Query().Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeAPIError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid page size")
			return
		}
		size = n
	}

	end := len(releases)
	if size > 0 && start+size < end {
		end = start + size
	}

	resp := map[string]any{}
	if end > start {
		items := make([]map[string]any, 0, end-start)
		for _, rel := range releases[start:end] {
			items = append(items, s.releaseJSON(rel))
		}
		resp["releases"] = items
	}
	if end < len(releases) {
		resp["nextPageToken"] = strconv.Itoa(end)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.findRelease(r)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "Release not found")
		return
	}
	writeJSON(w, http.StatusOK, s.releaseJSON(rel))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.findRelease(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.android.package-archive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rel.Binary)
}

func (s *Server) isApp(r *http.Request) bool {
	return chi.URLParam(r, "project") == s.ProjectNumber && chi.URLParam(r, "app") == s.AppID
}

func (s *Server) findRelease(r *http.Request) (Release, bool) {
	if chi.URLParam(r, "project") != "" && !s.isApp(r) {
		return Release{}, false
	}

	id := chi.URLParam(r, "release")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rel := range s.releases {
		if rel.ID == id {
			return rel, true
		}
	}
	return Release{}, false
}

func (s *Server) releaseJSON(rel Release) map[string]any {
	v := map[string]any{
		"name":               fmt.Sprintf("projects/%s/apps/%s/releases/%s", s.ProjectNumber, s.AppID, rel.ID),
		"displayVersion":     rel.DisplayVersion,
		"buildVersion":       rel.BuildVersion,
		"createTime":         rel.CreateTime,
		"binaryDownloadUri":  s.URL + "/download/" + rel.ID,
		"firebaseConsoleUri": "https://console.firebase.google.com/project/test/appdistribution/" + rel.ID,
	}
	if rel.Notes != nil {
		v["releaseNotes"] = map[string]string{"text": *rel.Notes}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int, status, message string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}
