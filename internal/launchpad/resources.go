package launchpad

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// Project is a Launchpad project entry.
type Project struct {
	SelfLink             string `json:"self_link"`
	WebLink              string `json:"web_link"`
	Name                 string `json:"name"`
	DisplayName          string `json:"display_name"`
	SeriesCollectionLink string `json:"series_collection_link"`
}

// Series is a project series such as "trunk".
type Series struct {
	SelfLink                    string `json:"self_link"`
	WebLink                     string `json:"web_link"`
	Name                        string `json:"name"`
	Active                      bool   `json:"active"`
	AllMilestonesCollectionLink string `json:"all_milestones_collection_link"`
}

// Milestone belongs to a series and links to at most one release.
type Milestone struct {
	SelfLink    string `json:"self_link"`
	WebLink     string `json:"web_link"`
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
	ReleaseLink string `json:"release_link"`
}

// Release is the versioned file collection uploads target.
type Release struct {
	SelfLink            string     `json:"self_link"`
	WebLink             string     `json:"web_link"`
	Version             string     `json:"version"`
	MilestoneLink       string     `json:"milestone_link"`
	FilesCollectionLink string     `json:"files_collection_link"`
	DateReleased        *time.Time `json:"date_released"`
}

// ReleaseFile is a file already attached to a release.
type ReleaseFile struct {
	SelfLink      string     `json:"self_link"`
	FileLink      string     `json:"file_link"`
	SignatureLink string     `json:"signature_link"`
	FileType      string     `json:"file_type"`
	Description   string     `json:"description"`
	DateUploaded  *time.Time `json:"date_uploaded"`
}

// Filename returns the file name, taken from the last segment of the self link.
func (f ReleaseFile) Filename() string {
	link := strings.TrimRight(f.SelfLink, "/")
	if parsed, err := url.Parse(link); err == nil && parsed.Path != "" {
		if name, err := url.PathUnescape(path.Base(parsed.Path)); err == nil {
			return name
		}
		return path.Base(parsed.Path)
	}
	return path.Base(link)
}

// Project fetches a project by name with a direct keyed lookup.
func (c *Client) Project(ctx context.Context, name string) (*Project, error) {
	var p Project
	if err := c.GetEntry(ctx, url.PathEscape(name), &p); err != nil {
		return nil, fmt.Errorf("get project %q: %w", name, err)
	}
	return &p, nil
}

// FindProject looks a project up through the projects collection's getByName operation.
func (c *Client) FindProject(ctx context.Context, name string) (*Project, error) {
	var p Project
	if err := c.NamedGet(ctx, "projects", "getByName", url.Values{"name": {name}}, &p); err != nil {
		return nil, fmt.Errorf("find project %q: %w", name, err)
	}
	return &p, nil
}

// Series fetches a series of project by name with a direct keyed lookup.
func (c *Client) Series(ctx context.Context, project *Project, name string) (*Series, error) {
	var s Series
	link := strings.TrimRight(project.SelfLink, "/") + "/" + url.PathEscape(name)
	if err := c.GetEntry(ctx, link, &s); err != nil {
		return nil, fmt.Errorf("get series %q: %w", name, err)
	}
	return &s, nil
}

// FindSeries looks a series up through the project's getSeries operation.
func (c *Client) FindSeries(ctx context.Context, project *Project, name string) (*Series, error) {
	var s Series
	if err := c.NamedGet(ctx, project.SelfLink, "getSeries", url.Values{"name": {name}}, &s); err != nil {
		return nil, fmt.Errorf("find series %q: %w", name, err)
	}
	return &s, nil
}

// EachMilestone visits every milestone of a series, active or not, until visit returns false.
func (c *Client) EachMilestone(ctx context.Context, series *Series, visit func(Milestone) bool) error {
	link := series.AllMilestonesCollectionLink
	if link == "" {
		link = strings.TrimRight(series.SelfLink, "/") + "/all_milestones"
	}
	return c.EachEntry(ctx, link, func(raw json.RawMessage) (bool, error) {
		var m Milestone
		if err := json.Unmarshal(raw, &m); err != nil {
			return false, fmt.Errorf("decode milestone: %w", err)
		}
		return visit(m), nil
	})
}

// Release loads the release a milestone links to.
func (c *Client) Release(ctx context.Context, milestone *Milestone) (*Release, error) {
	if strings.TrimSpace(milestone.ReleaseLink) == "" {
		return nil, fmt.Errorf("milestone %q has no release: %w", milestone.Name, ErrNotFound)
	}
	var r Release
	if err := c.GetEntry(ctx, milestone.ReleaseLink, &r); err != nil {
		return nil, fmt.Errorf("get release for milestone %q: %w", milestone.Name, err)
	}
	return &r, nil
}

// ReleaseFiles lists every file attached to a release.
func (c *Client) ReleaseFiles(ctx context.Context, release *Release) ([]ReleaseFile, error) {
	link := release.FilesCollectionLink
	if link == "" {
		link = strings.TrimRight(release.SelfLink, "/") + "/files"
	}
	var files []ReleaseFile
	err := c.EachEntry(ctx, link, func(raw json.RawMessage) (bool, error) {
		var f ReleaseFile
		if err := json.Unmarshal(raw, &f); err != nil {
			return false, fmt.Errorf("decode release file: %w", err)
		}
		files = append(files, f)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files of release %q: %w", release.Version, err)
	}
	return files, nil
}
