package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingAPIKey = fmt.Errorf("missing API key")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrDecode             = fmt.Errorf("failed to decode response")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNoCloseMatch       = fmt.Errorf("unable to find a close catalog match")

	// Library errors
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrSongNotFound     = fmt.Errorf("song not found")
	ErrReadOnlyPlaylist = fmt.Errorf("playlist is not editable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
