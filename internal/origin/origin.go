// Package origin normalizes and matches browser Origin headers for the
// relay's browser-facing endpoints (signaling WebSocket, ICE config).
package origin

import (
	"net/url"
	"strconv"
	"strings"
)

// Normalize validates a browser Origin header and returns the normalized
// origin (scheme://host[:port], default ports stripped) plus the host[:port]
// part used for same-host comparisons. The special value "null" is passed
// through.
func Normalize(originHeader string) (normalized string, host string, ok bool) {
	trimmed := strings.TrimSpace(originHeader)
	if trimmed == "" {
		return "", "", false
	}
	if trimmed == "null" {
		return "null", "", true
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", false
	}
	// An Origin is just scheme://authority; anything else is malformed.
	if u.User != nil || u.RawQuery != "" || u.Fragment != "" || (u.Path != "" && u.Path != "/") {
		return "", "", false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", false
	}

	host, ok = normalizeHostPort(u.Host, scheme)
	if !ok {
		return "", "", false
	}
	return scheme + "://" + host, host, true
}

// Allowed reports whether the normalized origin may access the given request
// host. A non-empty allowlist is authoritative: entries are either "*" or
// normalized origins. With an empty allowlist the policy is same-host only;
// scheme is not compared because the relay may sit behind a TLS-terminating
// proxy and see HTTP while the browser Origin says HTTPS.
func Allowed(normalized, originHost, requestHost string, allowlist []string) bool {
	if len(allowlist) > 0 {
		for _, entry := range allowlist {
			if entry == "*" || entry == normalized {
				return true
			}
		}
		return false
	}

	scheme := ""
	switch {
	case strings.HasPrefix(normalized, "http://"):
		scheme = "http"
	case strings.HasPrefix(normalized, "https://"):
		scheme = "https"
	default:
		// "null" can never match a host-based request.
		return false
	}

	reqHost, ok := normalizeHostPort(strings.TrimSpace(requestHost), scheme)
	if !ok {
		return false
	}
	return originHost == reqHost
}

// normalizeHostPort lowercases the hostname, validates the port, and strips
// the scheme's default port. IPv6 literals keep their brackets.
func normalizeHostPort(rawHost, scheme string) (string, bool) {
	hostname, rawPort, ok := splitHostPort(strings.ToLower(rawHost))
	if !ok || hostname == "" {
		return "", false
	}

	var port uint64
	if rawPort != "" {
		n, err := strconv.ParseUint(rawPort, 10, 16)
		if err != nil || n == 0 {
			return "", false
		}
		port = n
	}
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		port = 0
	}

	host := hostname
	if strings.Contains(hostname, ":") {
		host = "[" + hostname + "]"
	}
	if port != 0 {
		host += ":" + strconv.FormatUint(port, 10)
	}
	return host, true
}

// splitHostPort splits an authority host[:port]. The hostname is returned
// without brackets for IPv6 literals; the port is returned unvalidated.
func splitHostPort(rawHost string) (hostname, port string, ok bool) {
	if rawHost == "" {
		return "", "", false
	}

	if strings.HasPrefix(rawHost, "[") {
		end := strings.IndexByte(rawHost, ']')
		if end < 0 {
			return "", "", false
		}
		hostname = rawHost[1:end]
		rest := rawHost[end+1:]
		if rest == "" {
			return hostname, "", true
		}
		if !strings.HasPrefix(rest, ":") || len(rest) == 1 {
			return "", "", false
		}
		return hostname, rest[1:], true
	}

	switch strings.Count(rawHost, ":") {
	case 0:
		return rawHost, "", true
	case 1:
		i := strings.IndexByte(rawHost, ':')
		if i == 0 || i == len(rawHost)-1 {
			return "", "", false
		}
		return rawHost[:i], rawHost[i+1:], true
	default:
		// Unbracketed IPv6 literals are not valid authority components.
		return "", "", false
	}
}
