package turnrest

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time { return time.Unix(1700000000, 0).UTC() }

func TestNewGenerator_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing secret", Config{TTLSeconds: 60, UsernamePrefix: "meet"}},
		{"zero ttl", Config{SharedSecret: "s", UsernamePrefix: "meet"}},
		{"missing prefix", Config{SharedSecret: "s", TTLSeconds: 60}},
		{"colon in prefix", Config{SharedSecret: "s", TTLSeconds: 60, UsernamePrefix: "a:b"}},
	}
	for _, tt := range tests {
		if _, err := NewGenerator(tt.cfg); err == nil {
			t.Errorf("%s: NewGenerator succeeded, want error", tt.name)
		}
	}
}

func TestGenerate_CoturnVector(t *testing.T) {
	g, err := NewGenerator(Config{
		SharedSecret:   "north",
		TTLSeconds:     3600,
		UsernamePrefix: "meet",
		Now:            fixedNow,
	})
	if err != nil {
		t.Fatal(err)
	}

	creds, err := g.Generate("conn-1")
	if err != nil {
		t.Fatal(err)
	}

	wantUser := "1700003600:meet:conn-1"
	if creds.Username != wantUser {
		t.Errorf("Username = %q, want %q", creds.Username, wantUser)
	}
	if creds.ExpiryUnix != 1700003600 {
		t.Errorf("ExpiryUnix = %d, want 1700003600", creds.ExpiryUnix)
	}

	mac := hmac.New(sha1.New, []byte("north"))
	mac.Write([]byte(wantUser))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if creds.Credential != want {
		t.Errorf("Credential = %q, want %q", creds.Credential, want)
	}
}

func TestGenerate_RejectsBadIDs(t *testing.T) {
	g, err := NewGenerator(Config{SharedSecret: "s", TTLSeconds: 60, UsernamePrefix: "meet"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(""); err == nil {
		t.Error("empty id accepted")
	}
	if _, err := g.Generate("a:b"); err == nil {
		t.Error("id with colon accepted")
	}
}

func TestGenerateRandom(t *testing.T) {
	g, err := NewGenerator(Config{SharedSecret: "s", TTLSeconds: 60, UsernamePrefix: "meet", Now: fixedNow})
	if err != nil {
		t.Fatal(err)
	}
	creds, err := g.GenerateRandom()
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.SplitN(creds.Username, ":", 3)
	if len(parts) != 3 || parts[1] != "meet" || len(parts[2]) != 32 {
		t.Fatalf("unexpected username %q", creds.Username)
	}
}
