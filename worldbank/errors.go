package worldbank

import "errors"

var (
	// ErrNetwork is returned for transport failures, timeouts and non 2xx responses
	ErrNetwork = errors.New("network error")

	// ErrDataFormat is returned when the response does not have the expected shape
	ErrDataFormat = errors.New("data format error")
)
