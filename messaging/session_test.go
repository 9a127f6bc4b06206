// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bureau-foundation/draftbot/lib/ref"
)

var (
	testUser  = ref.MustParseUserID("@draftbot:example.org")
	testRoom  = ref.MustParseRoomID("!room1:example.org")
	testPanel = ref.MustParseEventID("$panel1")
)

// newTestSession creates a DirectSession pointing at a test server.
func newTestSession(t *testing.T, handler http.Handler) *DirectSession {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(testUser, "test-token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestWhoAmI(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request, "test-token")
		if request.URL.Path != "/_matrix/client/v3/account/whoami" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		writeJSON(writer, map[string]string{"user_id": "@draftbot:example.org", "device_id": "DEV1"})
	}))

	userID, err := session.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI failed: %v", err)
	}
	if userID != testUser {
		t.Errorf("unexpected user ID: %s", userID)
	}
}

func TestJoinRoom(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request, "test-token")
		if request.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", request.Method)
		}
		if request.URL.EscapedPath() != "/_matrix/client/v3/join/%21room1:example.org" {
			t.Errorf("unexpected path: %s", request.URL.EscapedPath())
		}
		writeJSON(writer, map[string]string{"room_id": "!room1:example.org"})
	}))

	roomID, err := session.JoinRoom(context.Background(), testRoom)
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	if roomID != testRoom {
		t.Errorf("unexpected room ID: %s", roomID)
	}
}

func TestJoinedRooms(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/joined_rooms" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		writeJSON(writer, map[string]any{"joined_rooms": []string{"!room1:example.org", "!room2:example.org"}})
	}))

	rooms, err := session.JoinedRooms(context.Background())
	if err != nil {
		t.Fatalf("JoinedRooms failed: %v", err)
	}
	if len(rooms) != 2 || rooms[0] != testRoom {
		t.Errorf("unexpected rooms: %v", rooms)
	}
}

// captureSend records the single send request a test makes.
type captureSend struct {
	method string
	path   string
	body   map[string]any
}

func newCaptureSession(t *testing.T, capture *captureSend, eventID string) *DirectSession {
	return newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request, "test-token")
		capture.method = request.Method
		capture.path = request.URL.Path
		if err := json.NewDecoder(request.Body).Decode(&capture.body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		writeJSON(writer, map[string]string{"event_id": eventID})
	}))
}

func TestSendNotice(t *testing.T) {
	var capture captureSend
	session := newCaptureSession(t, &capture, "$event1")

	eventID, err := session.SendMessage(context.Background(), testRoom, NewNotice("**Title**", "<p><strong>Title</strong></p>"))
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if eventID.String() != "$event1" {
		t.Errorf("unexpected event ID: %s", eventID)
	}
	if capture.method != http.MethodPut || !strings.HasPrefix(capture.path, "/_matrix/client/v3/rooms/!room1:example.org/send/m.room.message/") {
		t.Errorf("unexpected request: %s %s", capture.method, capture.path)
	}
	want := map[string]any{
		"msgtype":        "m.notice",
		"body":           "**Title**",
		"format":         "org.matrix.custom.html",
		"formatted_body": "<p><strong>Title</strong></p>",
	}
	for key, value := range want {
		if capture.body[key] != value {
			t.Errorf("%s = %v, want %v", key, capture.body[key], value)
		}
	}
	if _, ok := capture.body["m.relates_to"]; ok {
		t.Error("plain notice should not have m.relates_to")
	}
}

func TestEditMessage(t *testing.T) {
	var capture captureSend
	session := newCaptureSession(t, &capture, "$edit1")

	_, err := session.EditMessage(context.Background(), testRoom, testPanel, NewNotice("new body", "<p>new body</p>"))
	if err != nil {
		t.Fatalf("EditMessage failed: %v", err)
	}

	if capture.body["body"] != "* new body" || capture.body["formatted_body"] != "* <p>new body</p>" {
		t.Errorf("fallback = %v / %v", capture.body["body"], capture.body["formatted_body"])
	}
	relatesTo, _ := capture.body["m.relates_to"].(map[string]any)
	if relatesTo["rel_type"] != "m.replace" || relatesTo["event_id"] != "$panel1" {
		t.Errorf("m.relates_to = %v", relatesTo)
	}
	newContent, _ := capture.body["m.new_content"].(map[string]any)
	if newContent["body"] != "new body" || newContent["msgtype"] != "m.notice" {
		t.Errorf("m.new_content = %v", newContent)
	}
	if _, nested := newContent["m.relates_to"]; nested {
		t.Error("m.new_content must not carry a relation")
	}
}

func TestSendReaction(t *testing.T) {
	var capture captureSend
	session := newCaptureSession(t, &capture, "$reaction1")

	eventID, err := session.SendReaction(context.Background(), testRoom, testPanel, "✅")
	if err != nil {
		t.Fatalf("SendReaction failed: %v", err)
	}
	if eventID.String() != "$reaction1" {
		t.Errorf("unexpected event ID: %s", eventID)
	}
	if !strings.Contains(capture.path, "/send/m.reaction/") {
		t.Errorf("unexpected path: %s", capture.path)
	}
	relatesTo, _ := capture.body["m.relates_to"].(map[string]any)
	if relatesTo["rel_type"] != "m.annotation" || relatesTo["event_id"] != "$panel1" || relatesTo["key"] != "✅" {
		t.Errorf("m.relates_to = %v", relatesTo)
	}
}

func TestRedactEvent(t *testing.T) {
	var capture captureSend
	session := newCaptureSession(t, &capture, "$redaction1")

	if _, err := session.RedactEvent(context.Background(), testRoom, ref.MustParseEventID("$reply1"), "consumed"); err != nil {
		t.Fatalf("RedactEvent failed: %v", err)
	}
	if capture.method != http.MethodPut || !strings.HasPrefix(capture.path, "/_matrix/client/v3/rooms/!room1:example.org/redact/$reply1/") {
		t.Errorf("unexpected request: %s %s", capture.method, capture.path)
	}
	if capture.body["reason"] != "consumed" {
		t.Errorf("reason = %v", capture.body["reason"])
	}
}

func TestSync(t *testing.T) {
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assertAuth(t, request, "test-token")
		if request.URL.Path != "/_matrix/client/v3/sync" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		query := request.URL.Query()
		if query.Get("since") != "s123" {
			t.Errorf("unexpected since token: %s", query.Get("since"))
		}
		if query.Get("timeout") != "0" {
			t.Errorf("unexpected timeout: %s", query.Get("timeout"))
		}
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{
			"next_batch": "s456",
			"rooms": {
				"join": {"!room1:example.org": {"timeline": {"events": [
					{"event_id": "$evt1", "type": "m.room.message", "sender": "@alice:example.org",
					 "content": {"msgtype": "m.text", "body": "hello"}}
				]}}},
				"invite": {"!room2:example.org": {"invite_state": {"events": []}}}
			}
		}`))
	}))

	response, err := session.Sync(context.Background(), SyncOptions{Since: "s123", SetTimeout: true})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if response.NextBatch != "s456" {
		t.Errorf("unexpected next_batch: %s", response.NextBatch)
	}
	room, ok := response.Rooms.Join[testRoom]
	if !ok || len(room.Timeline.Events) != 1 {
		t.Fatalf("unexpected join section: %+v", response.Rooms.Join)
	}
	var content MessageContent
	if err := room.Timeline.Events[0].DecodeContent(&content); err != nil {
		t.Fatalf("DecodeContent failed: %v", err)
	}
	if content.Body != "hello" {
		t.Errorf("body = %q", content.Body)
	}
	if _, ok := response.Rooms.Invite[ref.MustParseRoomID("!room2:example.org")]; !ok {
		t.Error("invite section lost")
	}
}

func TestTransactionIDUniqueness(t *testing.T) {
	transactionIDs := make(map[string]bool)
	session := newTestSession(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		parts := strings.Split(request.URL.Path, "/")
		transactionID := parts[len(parts)-1]
		if transactionIDs[transactionID] {
			t.Errorf("duplicate transaction ID: %s", transactionID)
		}
		transactionIDs[transactionID] = true
		writeJSON(writer, map[string]string{"event_id": "$evt"})
	}))

	for range 5 {
		if _, err := session.SendMessage(context.Background(), testRoom, NewTextMessage("msg")); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
	}
	if len(transactionIDs) != 5 {
		t.Errorf("expected 5 unique transaction IDs, got %d", len(transactionIDs))
	}
}

func assertAuth(t *testing.T, request *http.Request, expectedToken string) {
	t.Helper()
	if got, want := request.Header.Get("Authorization"), "Bearer "+expectedToken; got != want {
		t.Errorf("unexpected auth header: got %q, want %q", got, want)
	}
}

func writeJSON(writer http.ResponseWriter, value any) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(value)
}
