package gateways

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ochairo/specfetch/internal/domain/entities"
)

func TestLockPath(t *testing.T) {
	if got := LockPath("/tmp/specs/"); got != "/tmp/specs.lock" {
		t.Errorf("LockPath() = %q, want /tmp/specs.lock", got)
	}
}

func TestDestinationLock_AcquireRelease(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), "specs")
	lock := NewDestinationLock(time.Second)

	release, err := lock.Acquire(context.Background(), destDir)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()

	// Released locks can be taken again
	release, err = lock.Acquire(context.Background(), destDir)
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	release()
}

func TestDestinationLock_Contention(t *testing.T) {
	destDir := filepath.Join(t.TempDir(), "specs")

	release, err := NewDestinationLock(time.Second).Acquire(context.Background(), destDir)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer release()

	_, err = NewDestinationLock(250*time.Millisecond).Acquire(context.Background(), destDir)
	if err == nil {
		t.Fatal("Acquire() should time out while another holder has the lock")
	}
	if !entities.IsKind(err, entities.KindFilesystem) {
		t.Errorf("kind = %v, want filesystem", entities.KindOf(err))
	}
}
