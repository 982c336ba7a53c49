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
	"github.com/avetisk/civic-voice/internal/repository"
)

// CommentHandler bundles repositories for comment mutations. Deleting a
// comment tombstones it instead of removing the row.
type CommentHandler struct {
	Comments    *repository.CommentRepo
	Suggestions *repository.SuggestionRepo
}

func NewCommentHandler(cm *repository.CommentRepo, s *repository.SuggestionRepo) *CommentHandler {
	return &CommentHandler{Comments: cm, Suggestions: s}
}

type commentReq struct {
	Content string `json:"content"`
}

type commentResp struct {
	ID           uint64  `json:"id"`
	SuggestionID uint64  `json:"suggestion_id"`
	AuthorID     *uint64 `json:"author_id"`
	Content      string  `json:"content"`
}

// Create handles POST /v1/suggestions/:id/comments.
func (h *CommentHandler) Create(c echo.Context) error {
	uid, _, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sid, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Suggestions.GetByID(ctx, sid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "suggestion not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	cm := model.Comment{SuggestionID: sid, AuthorID: &uid, Content: req.Content}
	id, err := h.Comments.Create(ctx, cm)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, commentResp{
		ID: id, SuggestionID: sid, AuthorID: &uid, Content: req.Content,
	})
}

// Update handles PUT /v1/comments/:id. A tombstoned comment cannot be
// edited back to life: the decision engine allows the call (idempotent
// delete semantics) but edits are refused explicitly here.
func (h *CommentHandler) Update(c echo.Context) error {
	uid, role, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	view, cm, err := h.loadView(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if view.Tombstoned {
		return c.JSON(http.StatusConflict, echo.Map{"error": "comment removed"})
	}
	if dec := auth.Decide(uid, role.Privileged(), view); dec.Status != auth.Allowed {
		return deny(c, dec)
	}

	if err := h.Comments.Update(ctx, id, req.Content); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, commentResp{
		ID: id, SuggestionID: cm.SuggestionID, AuthorID: cm.AuthorID, Content: req.Content,
	})
}

// Delete handles DELETE /v1/comments/:id by tombstoning the comment.
// Deleting an already-tombstoned comment is an idempotent no-op: the
// engine allows it and no second write happens.
func (h *CommentHandler) Delete(c echo.Context) error {
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
	if view.Tombstoned {
		// Already removed; nothing left to write.
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.Comments.Tombstone(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CommentHandler) loadView(ctx context.Context, id uint64) (auth.ResourceView, model.Comment, error) {
	cm, err := h.Comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.ResourceView{Exists: false}, model.Comment{}, nil
		}
		return auth.ResourceView{}, model.Comment{}, err
	}
	return auth.ResourceView{
		Exists:     true,
		OwnerID:    cm.AuthorID,
		Tombstoned: cm.Tombstoned(),
	}, cm, nil
}
