package subscribers

import "errors"

var (
	ErrUnknownSource = errors.New("unknown subscriber source")
	ErrReadFile      = errors.New("failed to read subscribers file")
	ErrQuery         = errors.New("failed to query subscribers")
)
