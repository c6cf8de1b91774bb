package provision

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/vnicctl/vnicctl/pkg/util"
)

// hostLock serializes provisioning runs on one host. The flock is
// advisory and released by the kernel when the process dies, so a
// crashed run never wedges the next one.
type hostLock struct {
	fl *flock.Flock
}

// acquireLock takes the host lock without blocking. A held lock fails
// fast with ErrLocked. An empty path disables locking.
func acquireLock(path string) (*hostLock, error) {
	if path == "" {
		return &hostLock{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		_ = fl.Close()
		return nil, fmt.Errorf("lock %s: %w", path, util.ErrLocked)
	}
	return &hostLock{fl: fl}, nil
}

func (l *hostLock) release() {
	if l.fl != nil {
		_ = l.fl.Close()
	}
}
