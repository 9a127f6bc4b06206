// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/bureau-foundation/draftbot/lib/ref"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid URL", "http://localhost:6167", false},
		{"trailing slash", "https://matrix.example.org/", false},
		{"empty URL", "", true},
		{"invalid URL", "://invalid", true},
		{"unsupported scheme", "ftp://matrix.example.org", true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			client, err := NewClient(ClientConfig{HomeserverURL: test.url})
			if test.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}
			if strings.HasSuffix(client.baseURL, "/") {
				t.Errorf("baseURL %q keeps a trailing slash", client.baseURL)
			}
		})
	}
}

func TestSessionFromToken(t *testing.T) {
	client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:6167"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	userID := ref.MustParseUserID("@draftbot:example.org")

	session, err := client.SessionFromToken(userID, "syt_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	if session.UserID() != userID {
		t.Errorf("UserID() = %v, want %v", session.UserID(), userID)
	}

	if _, err := client.SessionFromToken(userID, ""); err == nil {
		t.Error("SessionFromToken accepted an empty token")
	}
}

func TestErrorResponses(t *testing.T) {
	t.Run("matrix error", func(t *testing.T) {
		session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusForbidden)
			writer.Write([]byte(`{"errcode":"M_FORBIDDEN","error":"You are not invited to this room."}`))
		}))

		_, err := session.JoinRoom(context.Background(), testRoom)
		if !IsMatrixError(err, ErrCodeForbidden) {
			t.Fatalf("JoinRoom error = %v, want M_FORBIDDEN", err)
		}
		var matrixErr *MatrixError
		if !errors.As(err, &matrixErr) || matrixErr.StatusCode != http.StatusForbidden {
			t.Errorf("status code not carried: %v", err)
		}
	})

	t.Run("non-JSON error", func(t *testing.T) {
		session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			http.Error(writer, "bad gateway", http.StatusBadGateway)
		}))

		_, err := session.WhoAmI(context.Background())
		if err == nil {
			t.Fatal("expected an error")
		}
		var matrixErr *MatrixError
		if errors.As(err, &matrixErr) {
			t.Errorf("non-JSON body decoded as %v", matrixErr)
		}
		if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "bad gateway") {
			t.Errorf("error %q should carry status and body", err)
		}
	})
}

func TestMatrixError(t *testing.T) {
	t.Run("error message format", func(t *testing.T) {
		err := &MatrixError{Code: ErrCodeForbidden, Message: "Access denied", StatusCode: 403}
		if got, want := err.Error(), "matrix: M_FORBIDDEN (403): Access denied"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("IsMatrixError through wrapping", func(t *testing.T) {
		err := errors.Join(errors.New("context"), &MatrixError{Code: ErrCodeNotFound, StatusCode: 404})
		if !IsMatrixError(err, ErrCodeNotFound) {
			t.Error("IsMatrixError should match M_NOT_FOUND")
		}
		if IsMatrixError(err, ErrCodeForbidden) {
			t.Error("IsMatrixError should not match M_FORBIDDEN")
		}
	})

	t.Run("non-matrix error", func(t *testing.T) {
		if IsMatrixError(context.Canceled, ErrCodeNotFound) {
			t.Error("IsMatrixError should return false for non-matrix errors")
		}
	})
}
