package footage

import "errors"

var (
	// ErrFootageUnavailable means every keyword, the cache and the
	// fallback category were exhausted without producing a clip.
	ErrFootageUnavailable = errors.New("no footage available for any keyword")

	// ErrCacheCorrupt means the cache file exists but cannot be parsed.
	// This is surfaced to the operator rather than silently discarded.
	ErrCacheCorrupt = errors.New("footage cache file is corrupt")

	// ErrUntrustedHost means a download link resolved to a host outside
	// the configured allow-list and the request was never issued.
	ErrUntrustedHost = errors.New("download host not on the allow-list")
)
