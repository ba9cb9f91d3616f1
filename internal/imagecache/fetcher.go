// fetcher.go: rate-limited HTTP client for the remote image service
package imagecache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/retroview/retroview-go/internal/conf"
	"github.com/retroview/retroview-go/internal/errors"
	"github.com/retroview/retroview-go/internal/syncutil"
)

// Typed fetch failures. Background prefetchers log these and move on;
// foreground callers may map them to per-image placeholder states.
var (
	ErrInvalidURL     = errors.NewStd("invalid image URL")
	ErrDownloadFailed = errors.NewStd("image download failed")
	ErrDecodeFailed   = errors.NewStd("image decode failed")
)

// Fetcher downloads encoded image bytes from the remote image service. All
// requests pass through a shared rate limiter and a concurrency gate, and
// recently failed ids are suppressed by a TTL negative cache so one broken
// id cannot hammer the service.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	limiter  *rate.Limiter
	gate     *syncutil.Gate
	failures *gocache.Cache
}

// NewFetcher builds a fetcher from the image service settings.
func NewFetcher(settings *conf.ImageServiceSettings) *Fetcher {
	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perSecond := settings.RatePerSecond
	if perSecond <= 0 {
		perSecond = 10
	}
	failureTTL := time.Duration(settings.FailureTTLMin) * time.Minute
	if failureTTL <= 0 {
		failureTTL = 15 * time.Minute
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		baseURL:  settings.BaseURL,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1),
		gate:     syncutil.NewGate(settings.Concurrency),
		failures: gocache.New(failureTTL, 2*failureTTL),
	}
}

// imageURL builds the service URL for an image id at a quality tier.
func (f *Fetcher) imageURL(imageID string, quality Quality) (string, error) {
	if imageID == "" {
		return "", errors.New(fmt.Errorf("%w: empty image id", ErrInvalidURL)).
			Category(errors.CategoryImageFetch).
			Build()
	}
	base, err := url.Parse(f.baseURL)
	if err != nil {
		return "", errors.New(fmt.Errorf("%w: %v", ErrInvalidURL, err)).
			Category(errors.CategoryImageFetch).
			Context("base_url", f.baseURL).
			Build()
	}
	query := base.Query()
	query.Set("id", imageID)
	query.Set("t", quality.Token())
	base.RawQuery = query.Encode()
	return base.String(), nil
}

// Fetch downloads the encoded bytes for an image id at a quality tier. A
// non-200 response is a download failure. Failures are remembered for the
// configured TTL and short-circuit subsequent fetches of the same id+tier.
func (f *Fetcher) Fetch(ctx context.Context, imageID string, quality Quality) ([]byte, error) {
	key := CacheKey(imageID, quality)
	if cached, found := f.failures.Get(key); found {
		return nil, cached.(error)
	}

	fetchURL, err := f.imageURL(imageID, quality)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = f.gate.Do(ctx, func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return errors.New(fmt.Errorf("%w: %v", ErrInvalidURL, err)).
				Category(errors.CategoryImageFetch).
				Context("url", fetchURL).
				Build()
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return errors.New(fmt.Errorf("%w: %v", ErrDownloadFailed, err)).
				Category(errors.CategoryImageFetch).
				Context("image_id", imageID).
				NetworkContext(fetchURL, 0).
				Build()
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return errors.New(fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)).
				Category(errors.CategoryImageFetch).
				Context("image_id", imageID).
				Context("status", resp.StatusCode).
				NetworkContext(fetchURL, 0).
				Build()
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return errors.New(fmt.Errorf("%w: reading body: %v", ErrDownloadFailed, err)).
				Category(errors.CategoryImageFetch).
				Context("image_id", imageID).
				Build()
		}
		return nil
	})
	if err != nil {
		// Cancellation is the caller's doing, not the image's fault; only
		// real fetch failures enter the negative cache.
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			f.failures.SetDefault(key, err)
		}
		return nil, err
	}
	return body, nil
}

// ForgetFailure drops an id+tier from the negative cache, forcing the next
// fetch to hit the network again.
func (f *Fetcher) ForgetFailure(imageID string, quality Quality) {
	f.failures.Delete(CacheKey(imageID, quality))
}
