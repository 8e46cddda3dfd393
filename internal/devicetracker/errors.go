package devicetracker

import "errors"

var (
	ErrDuplicatePhy = errors.New("devicetracker: duplicate phy class")
	ErrNoSuchDevice = errors.New("devicetracker: no such device")
)
