package api

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"stockbot/config"
	"stockbot/types"
	"stockbot/workflow"

	"github.com/gin-gonic/gin"
)

// BackfillRequest is the optional body of POST /api/backfill.
type BackfillRequest struct {
	MonthsBack int `json:"monthsBack"`
}

// DataResponse is the JSON response for GET /api/data
type DataResponse struct {
	Companies  []types.Company  `json:"companies"`
	Catalysts  []types.Catalyst `json:"catalysts"`
	Digests    []types.Digest   `json:"digests"`
	TweetCount int              `json:"tweetCount"`
}

// statusFor maps a run failure to an HTTP status code.
func statusFor(err error) int {
	var pe *types.PreconditionError
	switch {
	case err == nil, errors.Is(err, workflow.ErrPartial):
		return http.StatusOK
	case errors.Is(err, workflow.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handlePass handles POST /api/pass
func (s *Server) handlePass(c *gin.Context) {
	out := s.runner.RunPass(c.Request.Context())
	c.JSON(statusFor(out.Err()), out)
}

// handleBackfill handles POST /api/backfill
func (s *Server) handleBackfill(c *gin.Context) {
	var req BackfillRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON payload: " + err.Error()})
			return
		}
	}

	out := s.runner.RunBackfill(c.Request.Context(), req.MonthsBack)
	c.JSON(statusFor(out.Err()), out)
}

// handleDigest handles POST /api/digest
func (s *Server) handleDigest(c *gin.Context) {
	out := s.runner.RunDigest(c.Request.Context())
	c.JSON(statusFor(out.Err()), out)
}

// handleCron handles GET /api/cron
func (s *Server) handleCron(c *gin.Context) {
	secret := c.GetHeader("x-cron-secret")
	if secret == "" {
		secret = c.Query("secret")
	}
	if s.cronSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.cronSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	out := s.runner.RunScheduled(c.Request.Context())
	c.JSON(statusFor(out.Err()), out)
}

// handleListDigests handles GET /api/digests
func (s *Server) handleListDigests(c *gin.Context) {
	digests, err := s.store.Digests.List(c.Request.Context(), config.DataDigestLimit)
	if err != nil {
		slog.Error("error listing digests", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"digests": nonNil(digests)})
}

// handleData handles GET /api/data
func (s *Server) handleData(c *gin.Context) {
	ctx := c.Request.Context()

	companies, err := s.store.Companies.List(ctx, 0)
	if err != nil {
		slog.Error("error listing companies", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	catalysts, err := s.store.Catalysts.List(ctx, config.DataCatalystLimit)
	if err != nil {
		slog.Error("error listing catalysts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	digests, err := s.store.Digests.List(ctx, config.DataDigestLimit)
	if err != nil {
		slog.Error("error listing digests", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	count, err := s.store.Ledger.Count(ctx)
	if err != nil {
		slog.Error("error counting posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, DataResponse{
		Companies:  nonNil(companies),
		Catalysts:  nonNil(catalysts),
		Digests:    nonNil(digests),
		TweetCount: count,
	})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.stateManager.GetStatus())
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
