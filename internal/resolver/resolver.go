// Package resolver fetches and decodes the rasters embedded in reports.
// It is stateless: nothing is cached between calls.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/photostore"
)

const (
	defaultTimeout = 10 * time.Second
	maxPhotoSize   = 50 * 1024 * 1024 // 50 MB
)

// ErrHostNotAllowed means a URL reference points at a host outside the
// configured allow list. No request is made.
var ErrHostNotAllowed = errors.New("photo host not allowed")

const maxRedirects = 10

// UnresolvableError means one image could not be fetched or decoded. The
// report carries on without it.
type UnresolvableError struct {
	Ref string
	Err error
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("image %q unresolvable: %v", e.Ref, e.Err)
}

func (e *UnresolvableError) Unwrap() error { return e.Err }

type Resolver struct {
	client       *http.Client
	store        photostore.PhotoStore
	timeout      time.Duration
	allowedHosts map[string]bool
	allowAny     bool
	logger       *slog.Logger
}

type Option func(*Resolver)

func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithPhotoStore resolves references that are neither URLs nor inline data
// as keys in ps.
func WithPhotoStore(ps photostore.PhotoStore) Option {
	return func(r *Resolver) { r.store = ps }
}

// WithAllowedHosts lists the hosts URL references may be fetched from. An
// entry matches the URL's host name, or host and port. "*" allows any host.
// With no allowed hosts, URL references are never fetched.
func WithAllowedHosts(hosts ...string) Option {
	return func(r *Resolver) {
		for _, h := range hosts {
			h = strings.ToLower(strings.TrimSpace(h))
			switch h {
			case "":
			case "*":
				r.allowAny = true
			default:
				r.allowedHosts[h] = true
			}
		}
	}
}

// WithTimeout bounds each individual fetch.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		client:       &http.Client{},
		timeout:      defaultTimeout,
		allowedHosts: map[string]bool{},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}

	// Redirects are held to the same allow list as the original URL.
	client := *r.client
	next := client.CheckRedirect
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !r.hostAllowed(req.URL) {
			return fmt.Errorf("redirect to %q: %w", req.URL.Host, ErrHostNotAllowed)
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	r.client = &client
	return r
}

func (r *Resolver) hostAllowed(u *url.URL) bool {
	if r.allowAny {
		return true
	}
	return r.allowedHosts[strings.ToLower(u.Host)] || r.allowedHosts[strings.ToLower(u.Hostname())]
}

// Resolve fetches ref and decodes it. Every failure is an
// *UnresolvableError.
func (r *Resolver) Resolve(ctx context.Context, ref domain.ImageRef) (*domain.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	data, err := r.fetch(ctx, ref)
	if err != nil {
		return nil, &UnresolvableError{Ref: ref.Key(), Err: err}
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, &UnresolvableError{Ref: ref.Key(), Err: err}
	}
	return img, nil
}

func (r *Resolver) fetch(ctx context.Context, ref domain.ImageRef) ([]byte, error) {
	switch {
	case len(ref.Data) > 0:
		return ref.Data, nil
	case ref.URL == "":
		return nil, errors.New("empty reference")
	case strings.HasPrefix(ref.URL, "data:"):
		return decodeDataURI(ref.URL)
	case strings.HasPrefix(ref.URL, "http://"), strings.HasPrefix(ref.URL, "https://"):
		return r.fetchURL(ctx, ref.URL)
	default:
		return r.fetchStored(ctx, ref.URL)
	}
}

func (r *Resolver) fetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid photo url: %w", err)
	}
	if !r.hostAllowed(u) {
		return nil, fmt.Errorf("%q: %w", u.Host, ErrHostNotAllowed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			r.logger.Error("failed to close photo response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo server returned status %d", resp.StatusCode)
	}
	return readLimited(resp.Body)
}

func (r *Resolver) fetchStored(ctx context.Context, key string) ([]byte, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no photo store configured for key %q", key)
	}
	rc, _, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			r.logger.Error("failed to close stored photo", "key", key, "error", err)
		}
	}()
	return readLimited(rc)
}

func readLimited(rd io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(rd, maxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) > maxPhotoSize {
		return nil, fmt.Errorf("photo exceeds %d bytes", maxPhotoSize)
	}
	return data, nil
}

// Result is the settled outcome of one reference in a batch.
type Result struct {
	Ref   domain.ImageRef
	Image *domain.Image
	Err   error
}

// ResolveAll resolves every reference concurrently and returns once all of
// them have settled. Results are in the order of refs. URL references that
// repeat within the batch are fetched once.
func (r *Resolver) ResolveAll(ctx context.Context, refs []domain.ImageRef) []Result {
	results := make([]Result, len(refs))

	type job struct {
		ref     domain.ImageRef
		targets []int
	}
	var jobs []*job
	byURL := map[string]*job{}
	for i, ref := range refs {
		results[i].Ref = ref
		if len(ref.Data) == 0 && ref.URL != "" {
			if j, ok := byURL[ref.URL]; ok {
				j.targets = append(j.targets, i)
				continue
			}
		}
		j := &job{ref: ref, targets: []int{i}}
		jobs = append(jobs, j)
		if len(ref.Data) == 0 && ref.URL != "" {
			byURL[ref.URL] = j
		}
	}

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			img, err := r.resolveSafely(ctx, j.ref)
			for _, i := range j.targets {
				results[i].Image = img
				results[i].Err = err
			}
		}(j)
	}
	wg.Wait()

	return results
}

// resolveSafely converts a decoder panic into an unresolvable image.
func (r *Resolver) resolveSafely(ctx context.Context, ref domain.ImageRef) (img *domain.Image, err error) {
	defer func() {
		if p := recover(); p != nil {
			img = nil
			err = &UnresolvableError{Ref: ref.Key(), Err: fmt.Errorf("decoder panic: %v", p)}
		}
	}()
	return r.Resolve(ctx, ref)
}
