package origin

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		wantHost string
		wantOK   bool
	}{
		{"https://example.com", "https://example.com", "example.com", true},
		{"https://EXAMPLE.com:443", "https://example.com", "example.com", true},
		{"http://example.com:80", "http://example.com", "example.com", true},
		{"http://example.com:8080", "http://example.com:8080", "example.com:8080", true},
		{"  https://example.com  ", "https://example.com", "example.com", true},
		{"https://[::1]:8443", "https://[::1]:8443", "[::1]:8443", true},
		{"null", "null", "", true},
		{"", "", "", false},
		{"example.com", "", "", false},
		{"ftp://example.com", "", "", false},
		{"https://user@example.com", "", "", false},
		{"https://example.com/path", "", "", false},
		{"https://example.com?q=1", "", "", false},
		{"https://example.com:0", "", "", false},
		{"https://example.com:99999", "", "", false},
	}
	for _, tt := range tests {
		got, host, ok := Normalize(tt.in)
		if got != tt.want || host != tt.wantHost || ok != tt.wantOK {
			t.Errorf("Normalize(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, got, host, ok, tt.want, tt.wantHost, tt.wantOK)
		}
	}
}

func TestAllowed_Allowlist(t *testing.T) {
	allow := []string{"https://app.example.com"}
	if !Allowed("https://app.example.com", "app.example.com", "relay.example.com", allow) {
		t.Error("listed origin rejected")
	}
	if Allowed("https://evil.example.com", "evil.example.com", "relay.example.com", allow) {
		t.Error("unlisted origin accepted")
	}
	if !Allowed("https://anything.example", "anything.example", "relay.example.com", []string{"*"}) {
		t.Error("wildcard allowlist rejected origin")
	}
}

func TestAllowed_SameHostDefault(t *testing.T) {
	if !Allowed("https://relay.example.com", "relay.example.com", "relay.example.com", nil) {
		t.Error("same-host origin rejected")
	}
	// Default port equivalence: Origin https://h vs request host h:443.
	if !Allowed("https://relay.example.com", "relay.example.com", "relay.example.com:443", nil) {
		t.Error("default-port request host rejected")
	}
	if Allowed("https://other.example.com", "other.example.com", "relay.example.com", nil) {
		t.Error("cross-host origin accepted")
	}
	if Allowed("null", "", "relay.example.com", nil) {
		t.Error("null origin accepted under same-host policy")
	}
}
