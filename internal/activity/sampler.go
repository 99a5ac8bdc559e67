package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"
	// DefaultTimeout bounds a single commit listing request.
	DefaultTimeout = 5 * time.Second

	window  = 7 * 24 * time.Hour
	perPage = 100
)

// Sampler counts recent commits for a fixed set of projects.
type Sampler struct {
	Projects []Project
	APIURL   string
	Token    string
	Timeout  time.Duration
	Client   *http.Client
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewSampler creates a sampler for projects against apiURL.
func NewSampler(apiURL string, projects []Project, logger *slog.Logger) *Sampler {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		Projects: projects,
		APIURL:   apiURL,
		Timeout:  DefaultTimeout,
		Client:   &http.Client{},
		Logger:   logger,
		Now:      time.Now,
	}
}

// Sample queries every project concurrently and returns once all requests
// have settled. Failed requests yield the project's fallback count, so the
// result always holds one record per project, in project order.
func (s *Sampler) Sample(ctx context.Context) []Record {
	records := make([]Record, len(s.Projects))
	since := s.now().Add(-window)

	var wg sync.WaitGroup
	for i, p := range s.Projects {
		wg.Add(1)
		go func(i int, p Project) {
			defer wg.Done()
			records[i] = s.sampleOne(ctx, p, since)
		}(i, p)
	}
	wg.Wait()

	return records
}

func (s *Sampler) sampleOne(ctx context.Context, p Project, since time.Time) Record {
	rec := Record{ProjectID: p.ID, SampledAt: s.now()}

	n, err := s.countCommits(ctx, p, since)
	if err != nil {
		s.Logger.Warn("commit activity unavailable, using fallback",
			"project", p.ID, "fallback", p.Fallback, "error", err)
		rec.CommitsPerWeek = p.Fallback
		rec.Fallback = true
		return rec
	}

	s.Logger.Info("commit activity sampled", "project", p.ID, "commits", n, "bpm", HeartRate(n))
	rec.CommitsPerWeek = n
	return rec
}

func (s *Sampler) countCommits(ctx context.Context, p Project, since time.Time) (int, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?since=%s&per_page=%d",
		s.APIURL, url.PathEscape(p.Owner), url.PathEscape(p.Repo),
		url.QueryEscape(since.UTC().Format(time.RFC3339)), perPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("list commits: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("list commits: unexpected status %d", resp.StatusCode)
	}

	var commits []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&commits); err != nil {
		return 0, fmt.Errorf("decode commits: %w", err)
	}
	return len(commits), nil
}

func (s *Sampler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
