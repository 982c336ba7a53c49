package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avetisk/civic-voice/internal/model"
	"github.com/avetisk/civic-voice/internal/repository"
)

// ProposalHandler exposes municipal proposal publication. Only moderators
// reach it; the role gate sits on the route.
type ProposalHandler struct {
	Proposals *repository.ProposalRepo
}

func NewProposalHandler(p *repository.ProposalRepo) *ProposalHandler {
	return &ProposalHandler{Proposals: p}
}

type createProposalReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	City        string `json:"city"`
}

// Create publishes a proposal owned by the calling moderator.
func (h *ProposalHandler) Create(c echo.Context) error {
	uid, _, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createProposalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Proposals.Create(ctx, model.Proposal{
		ModeratorID: uid,
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create proposal failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"proposal_id":  id,
		"moderator_id": uid,
		"title":        req.Title,
	})
}
