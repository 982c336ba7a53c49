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

// NoticeHandler implements moderator notice endpoints. Publishing is role
// gated at the route level; removal runs the ownership decision with the
// narrower notice override (a moderator owns their notices, only admins
// reach past that).
type NoticeHandler struct {
	Notices *repository.NoticeRepo
}

func NewNoticeHandler(n *repository.NoticeRepo) *NoticeHandler {
	return &NoticeHandler{Notices: n}
}

type noticeReq struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Create handles POST /v1/notices (moderators and admins only, enforced
// by RequireRole on the route).
func (h *NoticeHandler) Create(c echo.Context) error {
	uid, _, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req noticeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Body) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/body required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Notices.Create(ctx, model.Notice{ModeratorID: uid, Title: req.Title, Body: req.Body})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}

	_ = queue_publisher.PublishNoticePublished(ctx, queue.NoticePublishedEvent{
		NoticeID:    id,
		ModeratorID: uid,
		Title:       req.Title,
		PublishedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"id":           id,
		"moderator_id": uid,
		"title":        req.Title,
		"body":         req.Body,
	})
}

// Delete handles DELETE /v1/notices/:id.
func (h *NoticeHandler) Delete(c echo.Context) error {
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

	view := auth.ResourceView{}
	n, err := h.Notices.GetByID(ctx, id)
	switch {
	case err == nil:
		owner := n.ModeratorID
		view = auth.ResourceView{Exists: true, OwnerID: &owner}
	case errors.Is(err, sql.ErrNoRows):
		view = auth.ResourceView{Exists: false}
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if dec := auth.Decide(uid, role.CanOverrideNotice(), view); dec.Status != auth.Allowed {
		return deny(c, dec)
	}

	if err := h.Notices.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
