package hierarchy

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"lpupload/internal/launchpad"
	"lpupload/internal/logging"
	"lpupload/internal/testsupport"
)

type stubService struct {
	projects   map[string]*launchpad.Project
	series     map[string]*launchpad.Series
	milestones []launchpad.Milestone
	releases   map[string]*launchpad.Release

	directErr   error
	directCalls int
	searchCalls int
}

func (s *stubService) Project(_ context.Context, name string) (*launchpad.Project, error) {
	s.directCalls++
	if s.directErr != nil {
		return nil, s.directErr
	}
	if p, ok := s.projects[name]; ok {
		return p, nil
	}
	return nil, launchpad.ErrNotFound
}

func (s *stubService) FindProject(_ context.Context, name string) (*launchpad.Project, error) {
	s.searchCalls++
	if p, ok := s.projects[name]; ok {
		return p, nil
	}
	return nil, launchpad.ErrNotFound
}

func (s *stubService) Series(_ context.Context, _ *launchpad.Project, name string) (*launchpad.Series, error) {
	s.directCalls++
	if s.directErr != nil {
		return nil, s.directErr
	}
	if v, ok := s.series[name]; ok {
		return v, nil
	}
	return nil, launchpad.ErrNotFound
}

func (s *stubService) FindSeries(_ context.Context, _ *launchpad.Project, name string) (*launchpad.Series, error) {
	s.searchCalls++
	if v, ok := s.series[name]; ok {
		return v, nil
	}
	return nil, launchpad.ErrNotFound
}

func (s *stubService) EachMilestone(_ context.Context, _ *launchpad.Series, visit func(launchpad.Milestone) bool) error {
	for _, m := range s.milestones {
		if !visit(m) {
			return nil
		}
	}
	return nil
}

func (s *stubService) Release(_ context.Context, m *launchpad.Milestone) (*launchpad.Release, error) {
	if r, ok := s.releases[m.ReleaseLink]; ok {
		return r, nil
	}
	return nil, launchpad.ErrNotFound
}

func newStubService() *stubService {
	return &stubService{
		projects: map[string]*launchpad.Project{"veracrypt": {Name: "veracrypt", SelfLink: "lp/veracrypt"}},
		series:   map[string]*launchpad.Series{"trunk": {Name: "trunk", SelfLink: "lp/veracrypt/trunk"}},
		milestones: []launchpad.Milestone{
			{Name: "1.26.20", ReleaseLink: "lp/veracrypt/trunk/1.26.20"},
			{Name: "1.26.24", ReleaseLink: "lp/veracrypt/trunk/1.26.24"},
			{Name: "1.27"},
		},
		releases: map[string]*launchpad.Release{
			"lp/veracrypt/trunk/1.26.20": {Version: "1.26.20"},
			"lp/veracrypt/trunk/1.26.24": {Version: "1.26.24", SelfLink: "lp/veracrypt/trunk/1.26.24"},
		},
	}
}

func TestResolveReturnsEveryLevel(t *testing.T) {
	svc := newStubService()
	resolver := NewResolver(svc, logging.NewNop())

	got, err := resolver.Resolve(context.Background(), Target{Project: "veracrypt", Series: "trunk", Milestone: "1.26.24", Version: "1.26.24"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Project.Name != "veracrypt" || got.Series.Name != "trunk" || got.Milestone.Name != "1.26.24" {
		t.Fatalf("unexpected resolution %+v", got)
	}
	if got.Release.SelfLink != "lp/veracrypt/trunk/1.26.24" {
		t.Fatalf("unexpected release %+v", got.Release)
	}
	if svc.searchCalls != 0 {
		t.Fatalf("expected no search fallback, got %d", svc.searchCalls)
	}
}

func TestProjectFallsBackOnlyOnNotFound(t *testing.T) {
	svc := newStubService()
	svc.directErr = &launchpad.APIError{StatusCode: 404}
	resolver := NewResolver(svc, nil)

	project, err := resolver.Project(context.Background(), "veracrypt")
	if err != nil {
		t.Fatalf("Project returned error: %v", err)
	}
	if project != svc.projects["veracrypt"] || svc.searchCalls != 1 {
		t.Fatalf("expected fallback to return the project, searchCalls=%d", svc.searchCalls)
	}

	svc.directErr = &launchpad.APIError{StatusCode: 401}
	svc.searchCalls = 0
	_, err = resolver.Project(context.Background(), "veracrypt")
	if !errors.Is(err, launchpad.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if svc.searchCalls != 0 {
		t.Fatal("fallback must not run for errors other than not found")
	}
}

func TestProjectMissingEverywhere(t *testing.T) {
	resolver := NewResolver(newStubService(), nil)

	_, err := resolver.Project(context.Background(), "nosuch")
	if err == nil || !strings.Contains(err.Error(), `project "nosuch" not found`) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSeriesMissingNamesProject(t *testing.T) {
	svc := newStubService()
	resolver := NewResolver(svc, nil)

	_, err := resolver.Series(context.Background(), svc.projects["veracrypt"], "stable")
	if err == nil || !strings.Contains(err.Error(), `series "stable" not found in project "veracrypt"`) {
		t.Fatalf("unexpected error %v", err)
	}
	if svc.searchCalls != 1 {
		t.Fatalf("expected one search call, got %d", svc.searchCalls)
	}
}

func TestMilestoneRequiresExactMatch(t *testing.T) {
	svc := newStubService()
	resolver := NewResolver(svc, nil)

	_, err := resolver.Milestone(context.Background(), svc.series["trunk"], "1.26")
	if !errors.Is(err, launchpad.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "3 scanned") {
		t.Fatalf("expected scanned count in %q", err)
	}
}

func TestReleaseVersionMismatchAborts(t *testing.T) {
	svc := newStubService()
	resolver := NewResolver(svc, nil)

	_, err := resolver.Resolve(context.Background(), Target{Project: "veracrypt", Series: "trunk", Milestone: "1.26.20", Version: "1.26.24"})
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), `expected version "1.26.24", but milestone only links to "1.26.20"`) {
		t.Fatalf("unexpected message %q", err)
	}
}

func TestMilestoneWithoutRelease(t *testing.T) {
	resolver := NewResolver(newStubService(), nil)

	_, err := resolver.Resolve(context.Background(), Target{Project: "veracrypt", Series: "trunk", Milestone: "1.27", Version: "1.27"})
	if !errors.Is(err, launchpad.ErrNotFound) || !strings.Contains(err.Error(), "has no release") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFallbackResolvesSameObjectAsDirectLookup(t *testing.T) {
	fake := testsupport.NewFakeLaunchpad(t)
	fake.AddMilestones("veracrypt", "trunk", "1.26.20")
	fake.AddRelease("veracrypt", "trunk", "1.26.24", "1.26.24")
	client, err := launchpad.NewClient(fake.ServiceURL(), launchpad.Credentials{
		ConsumerKey:  "lpupload",
		AccessToken:  fake.AccessToken,
		AccessSecret: fake.AccessSecret,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	target := Target{Project: "veracrypt", Series: "trunk", Milestone: "1.26.24", Version: "1.26.24"}
	resolver := NewResolver(client, nil)

	direct, err := resolver.Resolve(context.Background(), target)
	if err != nil {
		t.Fatalf("direct Resolve returned error: %v", err)
	}

	fake.DisableDirectLookup = true
	viaSearch, err := resolver.Resolve(context.Background(), target)
	if err != nil {
		t.Fatalf("fallback Resolve returned error: %v", err)
	}

	if !reflect.DeepEqual(direct, viaSearch) {
		t.Fatalf("fallback resolution differs:\n direct=%+v\n search=%+v", direct, viaSearch)
	}
	var sawSearch bool
	for _, req := range fake.Requests() {
		if strings.Contains(req, "ws.op=getByName") {
			sawSearch = true
		}
	}
	if !sawSearch {
		t.Fatal("expected the getByName fallback to be used")
	}
}
