// Package handler defines HTTP handlers. This file implements the mutating
// suggestion endpoints. Every mutation on an existing suggestion runs the
// ownership decision first; nothing touches the row until it allows.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avetisk/civic-voice/internal/auth"
	"github.com/avetisk/civic-voice/internal/model"
	"github.com/avetisk/civic-voice/internal/queue"
	"github.com/avetisk/civic-voice/internal/repository"
	queue_publisher "github.com/avetisk/civic-voice/internal/service"
)

// SuggestionHandler bundles repositories for suggestion mutations.
type SuggestionHandler struct {
	Suggestions *repository.SuggestionRepo
	Proposals   *repository.ProposalRepo
	Votes       *repository.VoteRepo
}

func NewSuggestionHandler(s *repository.SuggestionRepo, p *repository.ProposalRepo, v *repository.VoteRepo) *SuggestionHandler {
	return &SuggestionHandler{Suggestions: s, Proposals: p, Votes: v}
}

type suggestionReq struct {
	ProposalID uint64 `json:"proposal_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

type suggestionResp struct {
	ID         uint64 `json:"id"`
	ProposalID uint64 `json:"proposal_id"`
	AuthorID   uint64 `json:"author_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

// Create handles POST /v1/suggestions. The authenticated user becomes the
// owner. The target proposal must exist.
func (h *SuggestionHandler) Create(c echo.Context) error {
	uid, _, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req suggestionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.ProposalID == 0 || req.Title == "" || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "proposal_id/title/content required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Proposals.GetByID(ctx, req.ProposalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "proposal not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	s := model.Suggestion{ProposalID: req.ProposalID, AuthorID: uid, Title: req.Title, Content: req.Content}
	id, err := h.Suggestions.Create(ctx, s)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}

	// Fire-and-forget: a broker outage must not fail the submission.
	_ = queue_publisher.PublishSuggestionCreated(ctx, queue.SuggestionCreatedEvent{
		SuggestionID: id,
		ProposalID:   req.ProposalID,
		AuthorID:     uid,
		Title:        req.Title,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, suggestionResp{
		ID: id, ProposalID: req.ProposalID, AuthorID: uid,
		Title: req.Title, Content: req.Content,
	})
}

// Update handles PUT /v1/suggestions/:id.
func (h *SuggestionHandler) Update(c echo.Context) error {
	uid, role, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req suggestionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/content required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	view, s, err := h.loadView(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if dec := auth.Decide(uid, role.Privileged(), view); dec.Status != auth.Allowed {
		return deny(c, dec)
	}

	if err := h.Suggestions.Update(ctx, id, req.Title, req.Content); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, suggestionResp{
		ID: id, ProposalID: s.ProposalID, AuthorID: s.AuthorID,
		Title: req.Title, Content: req.Content,
	})
}

// Delete handles DELETE /v1/suggestions/:id.
func (h *SuggestionHandler) Delete(c echo.Context) error {
	uid, role, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	view, _, err := h.loadView(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if dec := auth.Decide(uid, role.Privileged(), view); dec.Status != auth.Allowed {
		return deny(c, dec)
	}

	if err := h.Suggestions.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Vote handles POST /v1/suggestions/:id/votes. Voting is not an ownership
// question, so the decision engine is not involved; any authenticated user
// may vote once per suggestion.
func (h *SuggestionHandler) Vote(c echo.Context) error {
	uid, _, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Suggestions.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "suggestion not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if _, err := h.Votes.Create(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrAlreadyVoted) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already voted"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "vote failed"})
	}
	return c.NoContent(http.StatusCreated)
}

// loadView loads the suggestion and flattens it into the engine's view.
// A missing row becomes a non-existent view, not an error.
func (h *SuggestionHandler) loadView(ctx context.Context, id uint64) (auth.ResourceView, model.Suggestion, error) {
	s, err := h.Suggestions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.ResourceView{Exists: false}, model.Suggestion{}, nil
		}
		return auth.ResourceView{}, model.Suggestion{}, err
	}
	owner := s.AuthorID
	return auth.ResourceView{Exists: true, OwnerID: &owner}, s, nil
}
