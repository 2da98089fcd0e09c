// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/iqa-survey/internal/httputil"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

// ErrNotFound is returned by a Source when the resource does not exist.
var ErrNotFound = errors.New("resource not found")

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "iqa-survey/1.0"
	maxBodyBytes     = 16 << 20
)

// Source fetches survey resources by slash-separated relative path.
type Source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// NewSource returns the Source configured in cfg. BaseURL wins over Dir.
func NewSource(cfg types.SourceConfig, log *zap.Logger) (Source, error) {
	switch {
	case cfg.BaseURL != "":
		return NewHTTPSource(cfg, log), nil
	case cfg.Dir != "":
		return DirSource{Root: cfg.Dir}, nil
	}
	return nil, errors.New("no source configured: set source.base_url or source.dir")
}

// HTTPSource fetches resources relative to a base URL.
type HTTPSource struct {
	base       string
	client     *http.Client
	userAgent  string
	maxRetries int
	log        *zap.Logger
}

// NewHTTPSource returns an HTTPSource for cfg.BaseURL.
func NewHTTPSource(cfg types.SourceConfig, log *zap.Logger) *HTTPSource {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &HTTPSource{
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: timeout},
		userAgent:  ua,
		maxRetries: cfg.MaxRetries,
		log:        log,
	}
}

// Fetch GETs base/path.
func (s *HTTPSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	url := s.base + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.maxRetries, s.log)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fetching %s: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

// DirSource reads resources from a local directory tree.
type DirSource struct {
	Root string
}

// Fetch reads Root/path.
func (s DirSource) Fetch(_ context.Context, path string) ([]byte, error) {
	clean := filepath.FromSlash(strings.TrimLeft(path, "/"))
	if !fs.ValidPath(filepath.ToSlash(clean)) {
		return nil, fmt.Errorf("invalid resource path %q", path)
	}
	data, err := os.ReadFile(filepath.Join(s.Root, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
