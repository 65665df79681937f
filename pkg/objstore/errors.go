package objstore

import "errors"

var (
	ErrInvalidConfig = errors.New("objstore: bucket and region are required")
	ErrConflict      = errors.New("objstore: events object kept changing under concurrent writers")
)
