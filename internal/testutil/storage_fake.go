// Package testutil holds in-process fakes of the remote services used by
// package tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

const (
	FakeUser = "test"
	FakeKey  = "dfe83300db5f05f63157f772820bb028bd4d0e27"
)

// FakePackage is one catalog entry of a FakeStorage.
type FakePackage struct {
	UUID        string
	PackageType string
	Status      string
}

// FixityReply is what a FakeStorage answers to a check_fixity request.
// A zero Status means 200.
type FixityReply struct {
	Status int
	Body   string
}

// FakeStorage serves the storage service catalog, package detail and
// check_fixity endpoints. Pages are offset based and announce the next page
// through meta.next.
type FakeStorage struct {
	Server *httptest.Server

	mu             sync.Mutex
	packages       []FakePackage
	pageSize       int
	listStatus     int
	detailStatus   map[string]int
	fixity         map[string]FixityReply
	forceLocal     map[string]bool
	requests       []string
	checkedFixity  []string
	rejectAllCreds bool
}

func NewFakeStorage(t testing.TB, packages ...FakePackage) *FakeStorage {
	t.Helper()

	f := &FakeStorage{
		packages:     packages,
		pageSize:     20,
		detailStatus: map[string]int{},
		fixity:       map[string]FixityReply{},
		forceLocal:   map[string]bool{},
	}

	r := chi.NewRouter()
	r.Use(f.record, f.authenticate)
	r.Get("/api/v2/file/", f.list)
	r.Get("/api/v2/file/{uuid}/", f.detail)
	r.Get("/api/v2/file/{uuid}/check_fixity/", f.checkFixity)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL with a trailing slash.
func (f *FakeStorage) URL() string {
	return f.Server.URL + "/"
}

func (f *FakeStorage) SetPageSize(size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageSize = size
}

func (f *FakeStorage) SetListStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listStatus = status
}

func (f *FakeStorage) SetDetailStatus(uuid string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailStatus[uuid] = status
}

func (f *FakeStorage) SetFixity(uuid string, reply FixityReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixity[uuid] = reply
}

// RejectCredentials makes every request answer 401.
func (f *FakeStorage) RejectCredentials() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectAllCreds = true
}

// Requests returns the request URIs seen so far.
func (f *FakeStorage) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// CheckedFixity returns the uuids check_fixity was called for, in order.
func (f *FakeStorage) CheckedFixity() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.checkedFixity...)
}

func (f *FakeStorage) ForcedLocal(uuid string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forceLocal[uuid]
}

func (f *FakeStorage) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.RequestURI())
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeStorage) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		reject := f.rejectAllCreds
		f.mu.Unlock()

		query := r.URL.Query()
		if reject || query.Get("username") != FakeUser || query.Get("api_key") != FakeKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeStorage) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listStatus != 0 && f.listStatus != http.StatusOK {
		w.WriteHeader(f.listStatus)
		return
	}

	limit := f.pageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	end := offset + limit
	if end > len(f.packages) {
		end = len(f.packages)
	}
	objects := []map[string]string{}
	if offset < len(f.packages) {
		for _, p := range f.packages[offset:end] {
			objects = append(objects, map[string]string{
				"uuid":         p.UUID,
				"package_type": p.PackageType,
				"status":       p.Status,
			})
		}
	}

	var next any
	if end < len(f.packages) {
		next = fmt.Sprintf("/api/v2/file/?limit=%d&offset=%d", limit, end)
	}
	var previous any
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		previous = fmt.Sprintf("/api/v2/file/?limit=%d&offset=%d", limit, prev)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"meta": map[string]any{
			"limit":       limit,
			"offset":      offset,
			"next":        next,
			"previous":    previous,
			"total_count": len(f.packages),
		},
		"objects": objects,
	})
}

func (f *FakeStorage) detail(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")

	f.mu.Lock()
	status, ok := f.detailStatus[uuid]
	known := f.known(uuid)
	f.mu.Unlock()

	if ok && status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	if !ok && !known {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uuid": uuid, "package_type": "AIP", "status": "UPLOADED"})
}

func (f *FakeStorage) checkFixity(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")

	f.mu.Lock()
	f.checkedFixity = append(f.checkedFixity, uuid)
	f.forceLocal[uuid] = r.URL.Query().Get("force_local") == "true"
	reply, ok := f.fixity[uuid]
	f.mu.Unlock()

	if !ok {
		reply = FixityReply{Body: `{"success": true, "message": "", "failures": {"files": {"missing": [], "changed": [], "untracked": []}}, "timestamp": null}`}
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply.Body))
}

func (f *FakeStorage) known(uuid string) bool {
	for _, p := range f.packages {
		if p.UUID == uuid {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
