package config

import "errors"

var (
	// ErrNilPointer is returned when a nil pointer is passed to Load.
	ErrNilPointer = errors.New("config target cannot be nil")

	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrDotenv is returned when an explicitly requested .env file cannot be read.
	ErrDotenv = errors.New("failed to load dotenv file")
)
