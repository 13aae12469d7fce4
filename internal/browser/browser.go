// Package browser borrows the chat server's session cookie from a web
// browser, so the terminal client continues the chat the browser has open.
package browser

import (
	"context"
	"fmt"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"
)

// SupportedBrowser represents a supported browser type
type SupportedBrowser string

const (
	BrowserAuto     SupportedBrowser = "auto"
	BrowserChrome   SupportedBrowser = "chrome"
	BrowserChromium SupportedBrowser = "chromium"
	BrowserFirefox  SupportedBrowser = "firefox"
	BrowserEdge     SupportedBrowser = "edge"
	BrowserOpera    SupportedBrowser = "opera"
)

// AllSupportedBrowsers returns a list of all supported browsers
func AllSupportedBrowsers() []SupportedBrowser {
	return []SupportedBrowser{
		BrowserChrome,
		BrowserChromium,
		BrowserFirefox,
		BrowserEdge,
		BrowserOpera,
	}
}

func (b SupportedBrowser) String() string {
	return string(b)
}

// ParseBrowser parses a browser string into a SupportedBrowser
func ParseBrowser(s string) (SupportedBrowser, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return BrowserAuto, nil
	case "chrome", "google-chrome":
		return BrowserChrome, nil
	case "chromium":
		return BrowserChromium, nil
	case "firefox", "mozilla":
		return BrowserFirefox, nil
	case "edge", "msedge":
		return BrowserEdge, nil
	case "opera":
		return BrowserOpera, nil
	default:
		return "", fmt.Errorf("unsupported browser: %s. Supported: chrome, chromium, firefox, edge, opera", s)
	}
}

// ExtractResult holds the cookies found for the server host
type ExtractResult struct {
	Cookies     []*fhttp.Cookie
	BrowserName string
	StorePath   string
}

// ExtractSessionCookies finds the cookies a browser holds for host (the
// chat server's hostname, without port).
func ExtractSessionCookies(ctx context.Context, browser SupportedBrowser, host string) (*ExtractResult, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return nil, fmt.Errorf("no server host given")
	}
	if browser == BrowserAuto {
		return extractFromAllBrowsers(ctx, host)
	}
	return extractFromBrowser(ctx, browser, host)
}

func extractFromAllBrowsers(ctx context.Context, host string) (*ExtractResult, error) {
	browsers := []SupportedBrowser{
		BrowserChrome,
		BrowserFirefox,
		BrowserEdge,
		BrowserChromium,
		BrowserOpera,
	}

	var lastErr error
	for _, browser := range browsers {
		result, err := extractFromBrowser(ctx, browser, host)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("could not find cookies for %s in any browser: %w", host, lastErr)
}

// extractFromBrowser tries every profile of browser until one has cookies
// for host.
func extractFromBrowser(ctx context.Context, browser SupportedBrowser, host string) (*ExtractResult, error) {
	var matching []kooky.CookieStore
	for _, store := range kooky.FindAllCookieStores(ctx) {
		if matchesBrowser(store.Browser(), browser) {
			matching = append(matching, store)
		} else {
			_ = store.Close()
		}
	}
	defer func() {
		for _, s := range matching {
			_ = s.Close()
		}
	}()

	if len(matching) == 0 {
		return nil, fmt.Errorf("browser %s not found or no cookie store available", browser)
	}

	var lastErr error
	for _, store := range matching {
		result, err := extractCookiesFromStore(ctx, store, host)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// matchesBrowser checks if a browser name matches the target browser
func matchesBrowser(browserName string, target SupportedBrowser) bool {
	browserName = strings.ToLower(browserName)

	switch target {
	case BrowserChrome:
		return strings.Contains(browserName, "chrome") && !strings.Contains(browserName, "chromium")
	case BrowserChromium:
		return strings.Contains(browserName, "chromium")
	case BrowserFirefox:
		return strings.Contains(browserName, "firefox")
	case BrowserEdge:
		return strings.Contains(browserName, "edge")
	case BrowserOpera:
		return strings.Contains(browserName, "opera")
	default:
		return false
	}
}

func extractCookiesFromStore(ctx context.Context, store kooky.CookieStore, host string) (*ExtractResult, error) {
	displayName := store.Browser()
	if profile := store.Profile(); profile != "" {
		displayName = fmt.Sprintf("%s (profile: %s)", displayName, profile)
	}

	var found []*kooky.Cookie
	for cookie := range store.TraverseCookies(kooky.Valid, kooky.DomainContains(host)).OnlyCookies() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found = append(found, cookie)
	}

	cookies := selectCookies(found, host)
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies for %s in %s. Open the chat in that browser first", host, displayName)
	}

	return &ExtractResult{
		Cookies:     cookies,
		BrowserName: displayName,
		StorePath:   store.FilePath(),
	}, nil
}

// selectCookies keeps the cookies whose domain is host or a parent of it.
// When a name appears more than once the most specific domain wins.
func selectCookies(found []*kooky.Cookie, host string) []*fhttp.Cookie {
	byName := make(map[string]*kooky.Cookie)
	var order []string
	for _, c := range found {
		if c == nil || !hostMatches(c.Domain, host) {
			continue
		}
		prev, seen := byName[c.Name]
		if !seen {
			order = append(order, c.Name)
		}
		if !seen || len(strings.TrimPrefix(c.Domain, ".")) > len(strings.TrimPrefix(prev.Domain, ".")) {
			byName[c.Name] = c
		}
	}

	out := make([]*fhttp.Cookie, 0, len(order))
	for _, name := range order {
		c := byName[name]
		out = append(out, &fhttp.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	return out
}

// hostMatches reports whether a cookie set for domain is sent to host.
func hostMatches(domain, host string) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ListAvailableBrowsers returns a list of browsers that have cookie stores
func ListAvailableBrowsers(ctx context.Context) []string {
	var browsers []string
	seen := make(map[string]bool)
	for _, store := range kooky.FindAllCookieStores(ctx) {
		name := store.Browser()
		if !seen[name] {
			browsers = append(browsers, name)
			seen[name] = true
		}
		_ = store.Close()
	}
	return browsers
}
