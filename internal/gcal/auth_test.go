package gcal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	if _, err := LoadToken(path); !errors.Is(err, ErrNoToken) {
		t.Fatalf("LoadToken missing: err = %v", err)
	}

	expiry := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	want := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", Expiry: expiry}
	if err := SaveToken(path, want); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	got, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if got.AccessToken != "at" || got.RefreshToken != "rt" || !got.Expiry.Equal(expiry) {
		t.Errorf("token = %+v", got)
	}
}

type sequenceSource struct {
	tokens []string
	i      int
}

func (s *sequenceSource) Token() (*oauth2.Token, error) {
	tok := &oauth2.Token{AccessToken: s.tokens[s.i]}
	if s.i < len(s.tokens)-1 {
		s.i++
	}
	return tok, nil
}

func TestSavingTokenSourcePersistsRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	ts := &savingTokenSource{
		base:   &sequenceSource{tokens: []string{"old", "new"}},
		path:   path,
		logger: nil,
		last:   "old",
	}

	if _, err := ts.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if _, err := LoadToken(path); !errors.Is(err, ErrNoToken) {
		t.Fatalf("unchanged token was written: %v", err)
	}

	if _, err := ts.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}
	got, err := LoadToken(path)
	if err != nil || got.AccessToken != "new" {
		t.Errorf("saved = %+v, err = %v", got, err)
	}
}

func TestOAuthConfigMissingFile(t *testing.T) {
	if _, err := OAuthConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error")
	}
}
