package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

const (
	envVarICEServersJSON = "MEET_ICE_SERVERS_JSON"

	envVarSTUNURLs       = "MEET_STUN_URLS"
	envVarTURNURLs       = "MEET_TURN_URLS"
	envVarTURNUsername   = "MEET_TURN_USERNAME"
	envVarTURNCredential = "MEET_TURN_CREDENTIAL"
)

// parseICEServersFromEnv builds the ICE server list browsers receive from
// GET /rtc/ice. MEET_ICE_SERVERS_JSON wins; otherwise the STUN/TURN
// convenience vars (comma-separated URL lists) are used.
//
// When TURN REST credentials are enabled, TURN entries may omit static
// username/credential since ephemeral ones are stamped per request.
func parseICEServersFromEnv(lookup func(string) (string, bool), turnREST bool) ([]webrtc.ICEServer, error) {
	if raw := strings.TrimSpace(envOrDefault(lookup, envVarICEServersJSON, "")); raw != "" {
		servers, err := parseICEServersJSON(raw, turnREST)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envVarICEServersJSON, err)
		}
		return servers, nil
	}

	return parseICEServersFromConvenienceEnv(
		envOrDefault(lookup, envVarSTUNURLs, ""),
		envOrDefault(lookup, envVarTURNURLs, ""),
		envOrDefault(lookup, envVarTURNUsername, ""),
		envOrDefault(lookup, envVarTURNCredential, ""),
		turnREST,
	)
}

type iceServerJSON struct {
	URLs       stringOrStringSlice `json:"urls"`
	Username   string              `json:"username,omitempty"`
	Credential string              `json:"credential,omitempty"`
}

type stringOrStringSlice []string

func (s *stringOrStringSlice) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// ParseICEServersJSON parses and validates a JSON array of ICE server
// entries in the RTCConfiguration.iceServers shape.
func ParseICEServersJSON(raw string) ([]webrtc.ICEServer, error) {
	return parseICEServersJSON(raw, false)
}

func parseICEServersJSON(raw string, turnREST bool) ([]webrtc.ICEServer, error) {
	var servers []iceServerJSON
	if err := json.Unmarshal([]byte(raw), &servers); err != nil {
		return nil, err
	}

	out := make([]webrtc.ICEServer, 0, len(servers))
	for i, server := range servers {
		urls := make([]string, 0, len(server.URLs))
		for _, u := range server.URLs {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			urls = append(urls, u)
		}

		entry := webrtc.ICEServer{
			URLs:     urls,
			Username: strings.TrimSpace(server.Username),
		}
		if strings.TrimSpace(server.Credential) != "" {
			entry.Credential = server.Credential
		}

		if err := validateICEServer(entry, !turnREST); err != nil {
			return nil, fmt.Errorf("iceServers[%d]: %w", i, err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func parseICEServersFromConvenienceEnv(stunURLs, turnURLs, turnUsername, turnCredential string, turnREST bool) ([]webrtc.ICEServer, error) {
	stunList := splitCommaSeparated(stunURLs)
	turnList := splitCommaSeparated(turnURLs)

	var servers []webrtc.ICEServer
	if len(stunList) > 0 {
		server := webrtc.ICEServer{URLs: stunList}
		if err := validateICEServer(server, !turnREST); err != nil {
			return nil, fmt.Errorf("%s: %w", envVarSTUNURLs, err)
		}
		servers = append(servers, server)
	}

	if len(turnList) > 0 {
		turnUsername = strings.TrimSpace(turnUsername)
		turnCredential = strings.TrimSpace(turnCredential)
		if !turnREST && (turnUsername == "" || turnCredential == "") {
			return nil, fmt.Errorf("%s/%s: both must be set when %s is set without %s",
				envVarTURNUsername, envVarTURNCredential, envVarTURNURLs, envVarTURNRESTSharedSecret)
		}

		server := webrtc.ICEServer{
			URLs:     turnList,
			Username: turnUsername,
		}
		if turnCredential != "" {
			server.Credential = turnCredential
		}
		if err := validateICEServer(server, !turnREST); err != nil {
			return nil, fmt.Errorf("%s: %w", envVarTURNURLs, err)
		}
		servers = append(servers, server)
	}

	return servers, nil
}

func validateICEServer(server webrtc.ICEServer, requireTURNCreds bool) error {
	if len(server.URLs) == 0 {
		return errors.New("missing urls")
	}

	hasTURN := false
	for _, raw := range server.URLs {
		u := strings.TrimSpace(raw)
		if u == "" {
			return errors.New("urls must not contain empty entries")
		}
		if !isAllowedICEScheme(u) {
			return fmt.Errorf("unsupported url scheme: %q", u)
		}
		if strings.HasPrefix(u, "turn:") || strings.HasPrefix(u, "turns:") {
			hasTURN = true
		}
	}

	if hasTURN && requireTURNCreds {
		if strings.TrimSpace(server.Username) == "" {
			return errors.New("turn urls require username")
		}
		cred, ok := server.Credential.(string)
		if !ok || strings.TrimSpace(cred) == "" {
			return errors.New("turn urls require credential")
		}
	}

	return nil
}

func isAllowedICEScheme(u string) bool {
	switch {
	case strings.HasPrefix(u, "stun:"),
		strings.HasPrefix(u, "stuns:"),
		strings.HasPrefix(u, "turn:"),
		strings.HasPrefix(u, "turns:"):
		return true
	default:
		return false
	}
}
