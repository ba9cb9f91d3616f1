// conf/validate.go settings validation
package conf

import (
	"fmt"
	"net/url"
)

// ValidateSettings checks loaded settings for values the pipeline cannot
// operate with, normalizing a few out-of-range values to sane minimums.
func ValidateSettings(s *Settings) error {
	if s.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}

	if s.Import.ChunkSize < 1 {
		s.Import.ChunkSize = 1
	}
	if s.Import.Concurrency < 1 {
		s.Import.Concurrency = 1
	}
	if len(s.Import.Extensions) == 0 {
		return fmt.Errorf("import.extensions must list at least one file extension")
	}

	if s.ImageService.BaseURL == "" {
		return fmt.Errorf("imageservice.baseurl must not be empty")
	}
	if _, err := url.ParseRequestURI(s.ImageService.BaseURL); err != nil {
		return fmt.Errorf("imageservice.baseurl is not a valid URL: %w", err)
	}
	if s.ImageService.Concurrency < 1 {
		s.ImageService.Concurrency = 1
	}
	if s.ImageService.TimeoutSeconds < 1 {
		s.ImageService.TimeoutSeconds = 30
	}

	if s.Cache.MemoryLimitBytes < 1 {
		return fmt.Errorf("cache.memorylimitbytes must be positive")
	}
	if s.Cache.ThumbnailSize < 16 {
		s.Cache.ThumbnailSize = 16
	}
	if s.Cache.Concurrency < 1 {
		s.Cache.Concurrency = 1
	}

	if s.Archive.StagingPath == "" {
		return fmt.Errorf("archive.stagingpath must not be empty")
	}

	return nil
}
