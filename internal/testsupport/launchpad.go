package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeLaunchpad serves the subset of the Launchpad web service that release
// uploads touch: project/series lookups, milestone and file collections,
// add_file, and the OAuth token endpoints.
type FakeLaunchpad struct {
	server *httptest.Server

	mu       sync.Mutex
	projects map[string]*fakeProject
	uploads  []RecordedUpload
	requests []string

	// DisableDirectLookup makes keyed project and series GETs return 404 so
	// callers must use the named-operation fallback.
	DisableDirectLookup bool
	// PageSize bounds collection pages; zero means everything on one page.
	PageSize int
	// FailUploads maps a filename to the HTTP status add_file answers with.
	FailUploads map[string]int
	// AfterUpload, when set, is called with each accepted filename before
	// add_file responds.
	AfterUpload func(filename string)
	// AccessToken and AccessSecret are issued once the request token is approved.
	AccessToken  string
	AccessSecret string
	// TokenDecision is "" (pending), "approve" or "decline".
	TokenDecision string
}

type fakeProject struct {
	name   string
	series map[string]*fakeSeries
}

type fakeSeries struct {
	name       string
	milestones []*fakeMilestone
	releases   map[string]*fakeRelease
}

type fakeMilestone struct {
	name    string
	release string
}

type fakeRelease struct {
	version string
	files   []string
}

// RecordedUpload captures one add_file call.
type RecordedUpload struct {
	Filename          string
	Description       string
	ContentType       string
	FileType          string
	Content           []byte
	SignatureFilename string
	SignatureContent  []byte
}

// NewFakeLaunchpad starts a fake Launchpad server that is closed when the test ends.
func NewFakeLaunchpad(t testing.TB) *FakeLaunchpad {
	t.Helper()
	f := &FakeLaunchpad{
		projects:     map[string]*fakeProject{},
		FailUploads:  map[string]int{},
		AccessToken:  "access-token",
		AccessSecret: "access-secret",
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the server root, usable as both service and web root.
func (f *FakeLaunchpad) URL() string {
	return f.server.URL
}

// ServiceURL returns the versioned API root.
func (f *FakeLaunchpad) ServiceURL() string {
	return f.server.URL + "/devel"
}

// AddRelease registers project/series/milestone and a release with existing files.
// An empty version leaves the milestone without a release.
func (f *FakeLaunchpad) AddRelease(project, series, milestone, version string, files ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[project]
	if !ok {
		p = &fakeProject{name: project, series: map[string]*fakeSeries{}}
		f.projects[project] = p
	}
	s, ok := p.series[series]
	if !ok {
		s = &fakeSeries{name: series, releases: map[string]*fakeRelease{}}
		p.series[series] = s
	}
	s.milestones = append(s.milestones, &fakeMilestone{name: milestone, release: version})
	if version != "" {
		s.releases[version] = &fakeRelease{version: version, files: append([]string{}, files...)}
	}
}

// AddMilestones registers release-less milestones ahead of later ones.
func (f *FakeLaunchpad) AddMilestones(project, series string, names ...string) {
	for _, name := range names {
		f.AddRelease(project, series, name, "")
	}
}

// Uploads returns a copy of the recorded add_file calls.
func (f *FakeLaunchpad) Uploads() []RecordedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedUpload{}, f.uploads...)
}

// UploadedNames returns the file names of recorded add_file calls in order.
func (f *FakeLaunchpad) UploadedNames() []string {
	var names []string
	for _, u := range f.Uploads() {
		names = append(names, u.Filename)
	}
	return names
}

// Requests returns "METHOD path?query" for every request served.
func (f *FakeLaunchpad) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.requests...)
}

func (f *FakeLaunchpad) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())

	switch r.URL.Path {
	case "/+request-token":
		f.serveRequestToken(w, r)
		return
	case "/+access-token":
		f.serveAccessToken(w, r)
		return
	}

	if !strings.HasPrefix(r.URL.Path, "/devel/") {
		http.NotFound(w, r)
		return
	}
	if !strings.Contains(r.Header.Get("Authorization"), `oauth_token="`+f.AccessToken+`"`) {
		http.Error(w, "Unknown access token", http.StatusUnauthorized)
		return
	}

	if strings.Trim(strings.TrimPrefix(r.URL.Path, "/devel/"), "/") == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"resource_type_link":       f.server.URL + "/devel/#service-root",
			"projects_collection_link": f.link("projects"),
		})
		return
	}

	segments := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/devel/"), "/"), "/")
	op := r.URL.Query().Get("ws.op")

	if r.Method == http.MethodPost {
		f.serveAddFile(w, r, segments)
		return
	}

	switch {
	case len(segments) == 1 && segments[0] == "projects" && op == "getByName":
		f.writeNullable(w, f.projectJSON(r.URL.Query().Get("name")))
	case len(segments) == 1 && op == "getSeries":
		f.writeNullable(w, f.seriesJSON(segments[0], r.URL.Query().Get("name")))
	case len(segments) == 1:
		if f.DisableDirectLookup {
			http.NotFound(w, r)
			return
		}
		f.writeEntry(w, r, f.projectJSON(segments[0]))
	case len(segments) == 2:
		if f.DisableDirectLookup {
			http.NotFound(w, r)
			return
		}
		f.writeEntry(w, r, f.seriesJSON(segments[0], segments[1]))
	case len(segments) == 3 && segments[2] == "all_milestones":
		f.serveMilestones(w, r, segments[0], segments[1])
	case len(segments) == 3:
		f.writeEntry(w, r, f.releaseJSON(segments[0], segments[1], segments[2]))
	case len(segments) == 4 && segments[3] == "files":
		f.serveFiles(w, r, segments[0], segments[1], segments[2])
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeLaunchpad) link(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return f.server.URL + "/devel/" + strings.Join(escaped, "/")
}

func (f *FakeLaunchpad) findSeries(project, series string) *fakeSeries {
	p, ok := f.projects[project]
	if !ok {
		return nil
	}
	return p.series[series]
}

func (f *FakeLaunchpad) findRelease(project, series, version string) *fakeRelease {
	s := f.findSeries(project, series)
	if s == nil {
		return nil
	}
	return s.releases[version]
}

func (f *FakeLaunchpad) projectJSON(name string) map[string]any {
	if _, ok := f.projects[name]; !ok {
		return nil
	}
	return map[string]any{
		"self_link":              f.link(name),
		"web_link":               "https://launchpad.test/" + name,
		"name":                   name,
		"display_name":           strings.ToUpper(name[:1]) + name[1:],
		"series_collection_link": f.link(name, "series"),
	}
}

func (f *FakeLaunchpad) seriesJSON(project, name string) map[string]any {
	if f.findSeries(project, name) == nil {
		return nil
	}
	return map[string]any{
		"self_link":                      f.link(project, name),
		"name":                           name,
		"active":                         true,
		"all_milestones_collection_link": f.link(project, name, "all_milestones"),
	}
}

func (f *FakeLaunchpad) releaseJSON(project, series, version string) map[string]any {
	if f.findRelease(project, series, version) == nil {
		return nil
	}
	return map[string]any{
		"self_link":             f.link(project, series, version),
		"version":               version,
		"milestone_link":        f.link(project, "+milestone", version),
		"files_collection_link": f.link(project, series, version, "files"),
		"date_released":         "2025-05-31T00:00:00Z",
	}
}

func (f *FakeLaunchpad) serveMilestones(w http.ResponseWriter, r *http.Request, project, series string) {
	s := f.findSeries(project, series)
	if s == nil {
		http.NotFound(w, r)
		return
	}
	entries := make([]any, 0, len(s.milestones))
	for _, m := range s.milestones {
		entry := map[string]any{
			"self_link": f.link(project, "+milestone", m.name),
			"name":      m.name,
			"is_active": true,
		}
		if m.release != "" {
			entry["release_link"] = f.link(project, series, m.release)
		} else {
			entry["release_link"] = nil
		}
		entries = append(entries, entry)
	}
	f.writeCollection(w, r, entries)
}

func (f *FakeLaunchpad) serveFiles(w http.ResponseWriter, r *http.Request, project, series, version string) {
	rel := f.findRelease(project, series, version)
	if rel == nil {
		http.NotFound(w, r)
		return
	}
	entries := make([]any, 0, len(rel.files))
	for _, name := range rel.files {
		entries = append(entries, map[string]any{
			"self_link":      f.link(project, series, version, "+file", name),
			"file_link":      f.link(project, series, version, "+file", name, "file"),
			"signature_link": nil,
			"file_type":      "Code Release Tarball",
			"description":    "Uploaded file: " + name,
		})
	}
	f.writeCollection(w, r, entries)
}

func (f *FakeLaunchpad) serveAddFile(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) != 3 {
		http.NotFound(w, r)
		return
	}
	rel := f.findRelease(segments[0], segments[1], segments[2])
	if rel == nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.FormValue("ws.op") != "add_file" {
		http.Error(w, "unknown operation", http.StatusBadRequest)
		return
	}
	upload := RecordedUpload{
		Filename:          r.FormValue("filename"),
		Description:       r.FormValue("description"),
		ContentType:       r.FormValue("content_type"),
		FileType:          r.FormValue("file_type"),
		SignatureFilename: r.FormValue("signature_filename"),
	}
	var err error
	if upload.Content, err = readFormFile(r, "file_content"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if upload.SignatureFilename != "" {
		if upload.SignatureContent, err = readFormFile(r, "signature_content"); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if status, ok := f.FailUploads[upload.Filename]; ok {
		http.Error(w, "upload rejected for "+upload.Filename, status)
		return
	}
	f.uploads = append(f.uploads, upload)
	rel.files = append(rel.files, upload.Filename)
	if f.AfterUpload != nil {
		f.AfterUpload(upload.Filename)
	}
	w.Header().Set("Location", f.link(segments[0], segments[1], segments[2], "+file", upload.Filename))
	w.WriteHeader(http.StatusCreated)
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (f *FakeLaunchpad) writeCollection(w http.ResponseWriter, r *http.Request, entries []any) {
	start, _ := strconv.Atoi(r.URL.Query().Get("ws.start"))
	if start < 0 || start > len(entries) {
		start = len(entries)
	}
	end := len(entries)
	if f.PageSize > 0 && start+f.PageSize < end {
		end = start + f.PageSize
	}
	payload := map[string]any{
		"total_size": len(entries),
		"start":      start,
		"entries":    entries[start:end],
	}
	if end < len(entries) {
		next := *r.URL
		q := next.Query()
		q.Set("ws.start", strconv.Itoa(end))
		q.Set("ws.size", strconv.Itoa(f.PageSize))
		next.RawQuery = q.Encode()
		payload["next_collection_link"] = f.server.URL + next.RequestURI()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (f *FakeLaunchpad) writeEntry(w http.ResponseWriter, r *http.Request, entry map[string]any) {
	if entry == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (f *FakeLaunchpad) writeNullable(w http.ResponseWriter, entry map[string]any) {
	if entry == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (f *FakeLaunchpad) serveRequestToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("oauth_consumer_key") == "" {
		http.Error(w, "missing consumer key", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
	_, _ = io.WriteString(w, "oauth_token=request-token&oauth_token_secret=request-secret")
}

func (f *FakeLaunchpad) serveAccessToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("oauth_token") != "request-token" {
		http.Error(w, "Invalid request token", http.StatusUnauthorized)
		return
	}
	if r.PostForm.Get("oauth_signature") != "&request-secret" {
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}
	switch f.TokenDecision {
	case "approve":
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		values := url.Values{"oauth_token": {f.AccessToken}, "oauth_token_secret": {f.AccessSecret}}
		_, _ = io.WriteString(w, values.Encode())
	case "decline":
		http.Error(w, "End-user refused to authorize request token.", http.StatusForbidden)
	default:
		http.Error(w, "Request token has not yet been reviewed. Try again later.", http.StatusUnauthorized)
	}
}

// SetTokenDecision changes the fake's answer to access-token requests.
func (f *FakeLaunchpad) SetTokenDecision(decision string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TokenDecision = decision
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
