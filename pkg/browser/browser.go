// Package browser opens share links in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Open opens the specified URL in the default browser.
func Open(urlString string) error {
	cmd, err := Command(runtime.GOOS, urlString)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command builds the launcher for goos without starting it. Only absolute
// http and https URLs are accepted.
func Command(goos, urlString string) (*exec.Cmd, error) {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %q (only http and https allowed)", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: missing host")
	}

	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", urlString), nil // #nosec G204 -- URL validated above
	case "darwin":
		return exec.Command("open", urlString), nil // #nosec G204 -- URL validated above
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", urlString), nil // #nosec G204 -- URL validated above
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
