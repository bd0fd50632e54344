package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"lpupload/internal/launchpad"
)

// Prober fetches a Launchpad entry; *launchpad.Client satisfies it.
type Prober interface {
	ServiceURL() string
	GetEntry(ctx context.Context, link string, out any) error
}

// CheckDirectory verifies that path exists, is a directory, and can be listed and read.
func CheckDirectory(name, path string) Result {
	return checkDirectoryAccess(name, path, unix.R_OK|unix.X_OK, "read ok")
}

// CheckStateDirectory verifies the state directory is writable. A missing
// directory passes because it is created on first use.
func CheckStateDirectory(name, path string) Result {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	return checkDirectoryAccess(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

func checkDirectoryAccess(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckCredentials verifies that an access token is cached.
func CheckCredentials(store launchpad.CredentialStore) Result {
	const name = "Credentials"
	if store == nil {
		return Result{Name: name, Detail: "no credential store configured"}
	}
	creds, err := launchpad.LoadValid(store)
	if err != nil {
		if errors.Is(err, launchpad.ErrCredentialsMissing) {
			return Result{Name: name, Detail: "not logged in (run 'lpupload login')"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	detail := "cached"
	if !creds.IssuedAt.IsZero() {
		detail = "cached since " + creds.IssuedAt.Local().Format("2006-01-02")
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckService fetches the service root with a single attempt to confirm the
// API is reachable and accepts the cached credentials.
func CheckService(ctx context.Context, prober Prober) Result {
	const name = "Launchpad API"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var root map[string]any
	err := prober.GetEntry(checkCtx, "", &root)
	switch {
	case err == nil:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", prober.ServiceURL())}
	case errors.Is(err, launchpad.ErrUnauthorized):
		return Result{Name: name, Detail: "credentials rejected (run 'lpupload login')"}
	default:
		return Result{Name: name, Detail: summarizeServiceError(err)}
	}
}

func summarizeServiceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (Launchpad unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (Launchpad unreachable)"
	}
	return err.Error()
}
