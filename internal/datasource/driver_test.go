package datasource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// fakeDriver is a minimal Driver used across the package's tests. A
// zero value probes/opens successfully against any definition.
type fakeDriver struct {
	class       string
	probeDelay  time.Duration
	probeOK     bool
	probeErr    error
	openErr     error
	handle      *Handle
	supportList bool
	remote      bool
	listErr     error
	interfaces  []Interface

	openCount int32
}

func (d *fakeDriver) Class() string { return d.class }

func (d *fakeDriver) ProbeInterface(ctx context.Context, def Definition) (bool, error) {
	if d.probeDelay > 0 {
		select {
		case <-time.After(d.probeDelay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return d.probeOK, d.probeErr
}

func (d *fakeDriver) OpenInterface(ctx context.Context, def Definition) (*Handle, error) {
	atomic.AddInt32(&d.openCount, 1)
	if d.openErr != nil {
		return nil, d.openErr
	}
	if d.handle != nil {
		return d.handle, nil
	}
	return &Handle{}, nil
}

func (d *fakeDriver) SupportsList() bool   { return d.supportList }
func (d *fakeDriver) SupportsRemote() bool { return d.remote }

func (d *fakeDriver) ListInterfaces(ctx context.Context) ([]Interface, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.interfaces, nil
}

var errProbe = errors.New("probe failure")
