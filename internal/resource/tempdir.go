package resource

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// tempDirPrefix names both the process-unique subdirectory and, per spec
// §6's "Persisted state" ("Each temp directory is named
// NWN2CliExt_<pid>; the associated event object is named identically"),
// the associated lock primitive (a named Win32 event in the original;
// here an flock'd file in the same directory).
const tempDirPrefix = "NWN2CliExt_"

// instanceDir owns the manager's process-private temp directory and the
// advisory lock that marks it alive to other instances' defunct-sweeps.
type instanceDir struct {
	path     string
	lockFile *os.File
}

// newInstanceDir selects "system temp + a process-unique subdirectory",
// sweeps defunct same-prefix subdirectories left by processes that
// exited without cleaning up (their lock is no longer held), and creates
// its own locked directory. Grounded on spec §4.4's lifecycle
// description and §9's "named OS primitive (file lock or named
// semaphore)" guidance for the source's named-event defunct-sweep.
func newInstanceDir() (*instanceDir, error) {
	base := os.TempDir()
	sweepDefunct(base)

	name := fmt.Sprintf("%s%d", tempDirPrefix, os.Getpid())
	path := filepath.Join(base, name)
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, xerrors.Errorf("resource: create temp dir: %w", err)
	}

	lockPath := filepath.Join(path, ".lock")
	lf, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		os.RemoveAll(path)
		return nil, xerrors.Errorf("resource: create lock file: %w", err)
	}
	if err := unix.Flock(int(lf.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lf.Close()
		os.RemoveAll(path)
		return nil, xerrors.Errorf("resource: lock temp dir: %w", err)
	}

	return &instanceDir{path: path, lockFile: lf}, nil
}

// sweepDefunct removes same-prefix subdirectories of base whose lock file
// is not held by any live process; a failed non-blocking lock attempt
// means some other instance still owns the directory, so it is left
// alone. Errors are ignored: the sweep is a best-effort cleanup, never a
// precondition for this instance's own operation.
func sweepDefunct(base string) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) <= len(tempDirPrefix) || e.Name()[:len(tempDirPrefix)] != tempDirPrefix {
			continue
		}
		dir := filepath.Join(base, e.Name())
		lockPath := filepath.Join(dir, ".lock")
		lf, err := os.OpenFile(lockPath, os.O_RDWR, 0600)
		if err != nil {
			continue
		}
		err = unix.Flock(int(lf.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		lf.Close()
		if err != nil {
			continue // still held: another instance is alive
		}
		os.RemoveAll(dir)
	}
}

// Close releases the instance lock and removes the temp directory and
// everything demanded into it.
func (d *instanceDir) Close() error {
	if d.lockFile != nil {
		unix.Flock(int(d.lockFile.Fd()), unix.LOCK_UN)
		d.lockFile.Close()
	}
	return os.RemoveAll(d.path)
}

// newTempFile creates a uniquely-named "name.ext"-style file under the
// instance directory for a demanded archive-backed resource.
func (d *instanceDir) newTempFile(name Name, ext string) (*os.File, error) {
	fn := filepath.Join(d.path, string(name)+"."+ext)
	f, err := os.OpenFile(fn, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, xerrors.Errorf("resource: create temp file: %w", err)
	}
	return f, nil
}
