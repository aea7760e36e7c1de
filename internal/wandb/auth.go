package wandb

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdx/go-netrc"
	"golang.org/x/oauth2"
)

// ErrNoCredentials is returned when neither an explicit key nor a netrc entry
// is available for the API host.
var ErrNoCredentials = errors.New("no API key configured (set WANDB_API_KEY or run `wandb login`)")

// ResolveAPIKey returns the explicit key when set, otherwise the password of
// the netrc machine entry matching the API host.
func ResolveAPIKey(explicit, netrcPath, baseURL string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	host, err := apiHost(baseURL)
	if err != nil {
		return "", err
	}
	if netrcPath == "" {
		netrcPath = DefaultNetrcPath()
	}
	key, err := netrcPassword(netrcPath, host)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrNoCredentials
	}
	return key, nil
}

// DefaultNetrcPath honours $NETRC and falls back to ~/.netrc.
func DefaultNetrcPath() string {
	if p := os.Getenv("NETRC"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".netrc"
	}
	return filepath.Join(home, ".netrc")
}

func apiHost(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}
	return u.Hostname(), nil
}

// netrcPassword returns the password of the netrc machine entry for host.
// A missing file is not an error.
func netrcPassword(path, host string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat netrc %s: %w", path, err)
	}
	n, err := netrc.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse netrc %s: %w", path, err)
	}
	m := n.Machine(host)
	if m == nil {
		return "", nil
	}
	return m.Get("password"), nil
}

// basicTokenSource authenticates as the "api" user with the key as password.
func basicTokenSource(apiKey string) oauth2.TokenSource {
	creds := base64.StdEncoding.EncodeToString([]byte("api:" + apiKey))
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: creds,
		TokenType:   "Basic",
	})
}
