package app

import (
	"testing"
	"time"
)

func TestSessionTokens(t *testing.T) {
	s := NewSessionIssuer("test-secret", time.Hour)

	token, err := s.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got, err := s.parse(token, sessionAudience); err != nil || got != "user-1" {
		t.Fatalf("parse = %q, %v", got, err)
	}

	// a session token is not a valid OAuth state and vice versa
	if _, err := s.ParseOAuthState(token); err == nil {
		t.Fatal("session token accepted as oauth state")
	}
	state, err := s.IssueOAuthState("user-1")
	if err != nil {
		t.Fatalf("IssueOAuthState: %v", err)
	}
	if _, err := s.parse(state, sessionAudience); err == nil {
		t.Fatal("oauth state accepted as session")
	}
	if got, err := s.ParseOAuthState(state); err != nil || got != "user-1" {
		t.Fatalf("ParseOAuthState = %q, %v", got, err)
	}

	other := NewSessionIssuer("other-secret", time.Hour)
	if _, err := other.parse(token, sessionAudience); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestExpiredSessionIsRejected(t *testing.T) {
	s := NewSessionIssuer("test-secret", time.Hour)
	token, err := s.sign("user-1", sessionAudience, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.parse(token, sessionAudience); err == nil {
		t.Fatal("expired token accepted")
	}
}
