package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// ReportRequest is one POST received by a FakeReports server.
type ReportRequest struct {
	AIP         string
	Body        []byte
	ContentType string
	Username    string
	Password    string
	BasicAuth   bool
}

// FakeReports accepts pre-scan notices and reports on api/fixity/{uuid}.
type FakeReports struct {
	Server *httptest.Server

	mu       sync.Mutex
	status   int
	requests []ReportRequest
}

func NewFakeReports(t testing.TB) *FakeReports {
	t.Helper()

	f := &FakeReports{status: http.StatusCreated}

	r := chi.NewRouter()
	r.Post("/api/fixity/{uuid}", f.receive)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeReports) URL() string {
	return f.Server.URL + "/"
}

// SetStatus changes the status answered to every following POST.
func (f *FakeReports) SetStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *FakeReports) Requests() []ReportRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ReportRequest(nil), f.requests...)
}

func (f *FakeReports) receive(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	username, password, ok := r.BasicAuth()

	f.mu.Lock()
	f.requests = append(f.requests, ReportRequest{
		AIP:         chi.URLParam(r, "uuid"),
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
		Username:    username,
		Password:    password,
		BasicAuth:   ok,
	})
	status := f.status
	f.mu.Unlock()

	w.WriteHeader(status)
}
