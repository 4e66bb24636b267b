package errs

import (
	"errors"
	"strings"
)

var (
	// ErrVideoUnavailable indicates that the requested video cannot be accessed.
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrPrivate indicates that the video is private and cannot be downloaded.
	ErrPrivate = errors.New("video is private")
	// ErrAgeRestricted indicates that the video has an age restriction.
	ErrAgeRestricted = errors.New("age restricted")
	// ErrCipherFailed indicates failure during signature deciphering.
	ErrCipherFailed = errors.New("cipher failed")
	// ErrGeoBlocked indicates the video is not available in the current region.
	ErrGeoBlocked = errors.New("geo blocked")
	// ErrRateLimited indicates throttling or rate limiting by the remote service.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidVideoID indicates the input is neither a video URL nor a video id.
	ErrInvalidVideoID = errors.New("invalid video id")
	// ErrNoSources indicates the watch page carried no playable sources.
	ErrNoSources = errors.New("no video sources")
	// ErrScriptNotFound indicates the player script URL is missing from the watch page.
	ErrScriptNotFound = errors.New("player script not found")
	// ErrInvalidTimeRange indicates a clip range that is malformed, reversed or too long.
	ErrInvalidTimeRange = errors.New("invalid time range")
	// ErrInvalidSelector indicates a format selector that cannot be parsed.
	ErrInvalidSelector = errors.New("invalid format selector")
)

// FromPlayability maps a player response playability status and reason to a
// sentinel. It returns nil for playable videos.
func FromPlayability(status, reason string) error {
	s := strings.ToUpper(strings.TrimSpace(status))
	r := strings.ToLower(reason)
	switch s {
	case "", "OK":
		return nil
	case "ERROR":
		if strings.Contains(r, "geograph") || strings.Contains(r, "available in your country") {
			return ErrGeoBlocked
		}
		if strings.Contains(r, "rate limit") || strings.Contains(r, "quota") {
			return ErrRateLimited
		}
		return ErrVideoUnavailable
	case "LOGIN_REQUIRED":
		if strings.Contains(r, "private") {
			return ErrPrivate
		}
		return ErrAgeRestricted
	case "AGE_CHECK_REQUIRED", "CONTENT_CHECK_REQUIRED":
		return ErrAgeRestricted
	case "UNPLAYABLE":
		if strings.Contains(r, "private") {
			return ErrPrivate
		}
		return ErrVideoUnavailable
	case "FAIL":
		// legacy get_video_info status
		return ErrVideoUnavailable
	}
	return ErrVideoUnavailable
}
