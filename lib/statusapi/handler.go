// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statusapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bureau-foundation/draftbot/lib/draftstore"
	"github.com/bureau-foundation/draftbot/lib/editsession"
	"github.com/bureau-foundation/draftbot/lib/version"
)

const (
	defaultSubmissionLimit = 20
	maxSubmissionLimit     = 500
)

// SessionLister reports running sessions. Implemented by
// *dispatch.Dispatcher.
type SessionLister interface {
	Active() []editsession.Info
}

// SubmissionLister reports finalized drafts, newest first. Implemented
// by every draftstore.Store.
type SubmissionLister interface {
	Recent(ctx context.Context, limit int) ([]draftstore.Submission, error)
}

// Config configures the handler. Sessions is required; without
// Submissions the submissions route answers 404.
type Config struct {
	Sessions    SessionLister
	Submissions SubmissionLister
	Logger      *slog.Logger
}

type handler struct {
	sessions    SessionLister
	submissions SubmissionLister
	logger      *slog.Logger
}

// NewHandler returns the status API as an http.Handler.
func NewHandler(config Config) http.Handler {
	if config.Sessions == nil {
		panic("statusapi: Sessions is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{
		sessions:    config.Sessions,
		submissions: config.Submissions,
		logger:      logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), h.logRequests)
	router.GET("/healthz", h.health)

	api := router.Group("/v1")
	api.GET("/sessions", h.listSessions)
	if h.submissions != nil {
		api.GET("/submissions", h.listSubmissions)
	}
	router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not_found", "no route for "+c.Request.URL.Path)
	})
	return router
}

// logRequests logs each request at debug level once it completes.
func (h *handler) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.logger.Debug("status request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Current()})
}

type sessionsResponse struct {
	Sessions []editsession.Info `json:"sessions"`
}

func (h *handler) listSessions(c *gin.Context) {
	sessions := h.sessions.Active()
	if sessions == nil {
		sessions = []editsession.Info{}
	}
	c.JSON(http.StatusOK, sessionsResponse{Sessions: sessions})
}

type submissionsResponse struct {
	Submissions []draftstore.Submission `json:"submissions"`
}

func (h *handler) listSubmissions(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}
	submissions, err := h.submissions.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing submissions failed", "error", err)
		writeError(c, http.StatusInternalServerError, "internal_error", "listing submissions failed")
		return
	}
	if submissions == nil {
		submissions = []draftstore.Submission{}
	}
	c.JSON(http.StatusOK, submissionsResponse{Submissions: submissions})
}

// queryLimit reads ?limit=, clamped to maxSubmissionLimit.
func queryLimit(c *gin.Context) (int, error) {
	raw, present := c.GetQuery("limit")
	if !present {
		return defaultSubmissionLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return min(limit, maxSubmissionLimit), nil
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}
