// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/draftbot/lib/ref"
)

// DirectSession is an authenticated Matrix session: a Client plus an
// access token. Safe for concurrent use.
type DirectSession struct {
	client      *Client
	accessToken string
	userID      ref.UserID

	// transactionCounter makes transaction IDs unique within the
	// process; the timestamp prefix makes them unique across restarts.
	transactionCounter atomic.Int64
}

// UserID returns the session's Matrix user ID.
func (s *DirectSession) UserID() ref.UserID {
	return s.userID
}

// CloseIdleConnections drops pooled connections. Call after a sync
// error so the next request opens a fresh socket.
func (s *DirectSession) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// Close implements Session. It holds no resources beyond the shared
// HTTP client.
func (s *DirectSession) Close() error {
	return nil
}

// WhoAmI validates the access token and returns the user it belongs
// to.
func (s *DirectSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil, nil)
	if err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami failed: %w", err)
	}

	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: parsing whoami response: %w", err)
	}
	return response.UserID, nil
}

// JoinRoom joins a room by ID, accepting a pending invite. Returns the
// room ID.
func (s *DirectSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	path := "/_matrix/client/v3/join/" + url.PathEscape(roomID.String())
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{}, nil)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: join room %s failed: %w", roomID, err)
	}

	var response struct {
		RoomID ref.RoomID `json:"room_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: parsing join response: %w", err)
	}
	return response.RoomID, nil
}

// JoinedRooms returns the rooms the user has joined.
func (s *DirectSession) JoinedRooms(ctx context.Context) ([]ref.RoomID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/joined_rooms", s.accessToken, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: joined rooms failed: %w", err)
	}

	var response JoinedRoomsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: parsing joined rooms response: %w", err)
	}
	return response.JoinedRooms, nil
}

// SendEvent sends an event of any type to a room using the idempotent
// PUT with a transaction ID. Returns the event ID.
func (s *DirectSession) SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventType.String()),
		url.PathEscape(s.nextTransactionID()),
	)

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content, nil)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send %s to %s failed: %w", eventType, roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: parsing send response: %w", err)
	}
	return response.EventID, nil
}

// SendMessage sends an m.room.message to a room. Returns the event ID.
func (s *DirectSession) SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, ref.EventTypeMessage, content)
}

// EditMessage replaces the content of a message the session sent.
// Returns the event ID of the edit event.
func (s *DirectSession) EditMessage(ctx context.Context, roomID ref.RoomID, target ref.EventID, replacement MessageContent) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, ref.EventTypeMessage, NewEdit(target, replacement))
}

// SendReaction annotates target with key. Returns the reaction's event
// ID, which is what RedactEvent takes to remove it.
func (s *DirectSession) SendReaction(ctx context.Context, roomID ref.RoomID, target ref.EventID, key string) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, ref.EventTypeReaction, NewReaction(target, key))
}

// RedactEvent removes the content of an event. Returns the event ID of
// the redaction.
func (s *DirectSession) RedactEvent(ctx context.Context, roomID ref.RoomID, eventID ref.EventID, reason string) (ref.EventID, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/redact/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventID.String()),
		url.PathEscape(s.nextTransactionID()),
	)

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, RedactRequest{Reason: reason}, nil)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: redact %s in %s failed: %w", eventID, roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: parsing redact response: %w", err)
	}
	return response.EventID, nil
}

// Sync performs a /sync. Leave options.Since empty for an initial
// sync; set options.Timeout (with SetTimeout) to long-poll.
func (s *DirectSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync failed: %w", err)
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: parsing sync response: %w", err)
	}
	return &response, nil
}

// nextTransactionID returns "draftbot-<unix_ms>-<counter>".
func (s *DirectSession) nextTransactionID() string {
	counter := s.transactionCounter.Add(1)
	return fmt.Sprintf("draftbot-%d-%d", time.Now().UnixMilli(), counter)
}
