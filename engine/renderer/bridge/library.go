package bridge

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
)

// ErrLibraryUnavailable is matched by every *UnavailableError.
var ErrLibraryUnavailable = errors.New("native graphics library unavailable")

var errNotLoaded = errors.New("not loaded")

// UnavailableError reports a call made while the native library is not loaded.
// Cause is the original load failure.
type UnavailableError struct {
	Library string
	Cause   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: library %q: %v", ErrLibraryUnavailable, e.Library, e.Cause)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrLibraryUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Cause }

// Library guards a native library. It is either unloaded, with the cause of the last failed
// load, or ready with the handle the loader returned. A ready library never goes back to
// unloaded.
type Library struct {
	mu     sync.Mutex
	name   string
	handle any
	ready  bool
	cause  error
}

// NewLibrary returns an unloaded guard for the named library.
func NewLibrary(name string) *Library {
	return &Library{name: name, cause: errNotLoaded}
}

// Name returns the library name.
func (l *Library) Name() string { return l.name }

// Load runs loader unless the library is already ready. A loader that panics or returns an
// error leaves the library unloaded, and the failure becomes the cause reported by later calls.
//
// Parameters:
//   - loader: opens the library and returns its handle
//
// Returns:
//   - error: an *UnavailableError wrapping the load failure
func (l *Library) Load(loader func() (any, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return nil
	}
	handle, err := safeLoad(loader)
	if err == nil && handle == nil {
		err = errors.New("loader returned no handle")
	}
	if err != nil {
		l.cause = err
		common.Logger().Warn("native library load failed", "library", l.name, "err", err)
		return &UnavailableError{Library: l.name, Cause: err}
	}
	l.handle, l.ready, l.cause = handle, true, nil
	common.Logger().Info("native library loaded", "library", l.name)
	return nil
}

// Ready returns the library handle, or an *UnavailableError if the library is not loaded.
func (l *Library) Ready() (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ready {
		return nil, &UnavailableError{Library: l.name, Cause: l.cause}
	}
	return l.handle, nil
}

func safeLoad(loader func() (any, error)) (handle any, err error) {
	defer func() {
		if p := recover(); p != nil {
			handle, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	return loader()
}
