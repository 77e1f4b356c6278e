// Package securectx checks whether the app is reachable over an origin that
// mobile browsers treat as a secure context. Camera access (the barcode
// scanner) is refused by phones on plain HTTP anywhere except loopback, so
// the serve path warns the operator up front instead of letting scan pages
// fail silently on devices.
package securectx

import (
	"log/slog"
	"net"
	"net/url"
	"sync"
)

// WarningMessage is the fixed advisory shown when the app is served from an
// insecure origin. It matches the text of the browser-side helper in scan.js.
const WarningMessage = "Warning: camera access requires HTTPS or localhost. " +
	"Barcode scanning will not work on mobile devices over plain HTTP."

const readyMessage = "secure context guard active"

// Origin is the page origin as a browser would see it: a hostname and a
// protocol scheme including the trailing colon, e.g. "https:".
type Origin struct {
	Hostname string
	Protocol string
}

// FromURL derives an Origin from an advertised URL.
func FromURL(u *url.URL) Origin {
	return Origin{
		Hostname: u.Hostname(),
		Protocol: u.Scheme + ":",
	}
}

// FromAddr derives an Origin from a host:port listen address and whether the
// listener terminates TLS. Bracketed IPv6 literals lose their brackets, the
// same way a browser reports location.hostname.
func FromAddr(addr string, tls bool) Origin {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		// Wildcard binds are reachable from other devices by a non-loopback
		// name, which is exactly the case the check exists for.
		host = "0.0.0.0"
	}
	proto := "http:"
	if tls {
		proto = "https:"
	}
	return Origin{Hostname: host, Protocol: proto}
}

// IsSecure reports whether origin satisfies the secure-context rules for
// privileged browser APIs: loopback hostnames always qualify, anything else
// must be HTTPS.
func IsSecure(origin Origin) bool {
	return origin.Hostname == "localhost" ||
		origin.Hostname == "127.0.0.1" ||
		origin.Protocol == "https:"
}

// Guard evaluates the secure-context check once per process and delivers the
// advisory through an injected notify capability so callers control how the
// warning surfaces (stderr, UI banner, test capture).
type Guard struct {
	notify func(message string)
	once   sync.Once
}

// NewGuard creates a Guard and emits its readiness log line. The line is
// written exactly once per guard, before and independent of any Check call.
func NewGuard(logger *slog.Logger, notify func(message string)) *Guard {
	logger.Info(readyMessage)
	return &Guard{notify: notify}
}

// Check evaluates origin and reports whether it is secure. On the first
// insecure result the fixed warning is delivered via notify; subsequent calls
// re-evaluate but never notify again.
func (g *Guard) Check(origin Origin) bool {
	if IsSecure(origin) {
		return true
	}
	if g.notify != nil {
		g.once.Do(func() { g.notify(WarningMessage) })
	}
	return false
}
