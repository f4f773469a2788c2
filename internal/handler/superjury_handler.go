package handler

import (
	"errors"
	"io"
	"net/http"

	"MarsAI_Festival/internal/service"

	"github.com/gin-gonic/gin"
)

type SuperJuryHandler struct {
	svc         *service.SuperJuryService
	assignments *service.AssignmentService
}

func NewSuperJuryHandler(svc *service.SuperJuryService, assignments *service.AssignmentService) *SuperJuryHandler {
	return &SuperJuryHandler{svc: svc, assignments: assignments}
}

type AssignReq struct {
	JuryID  uint64   `json:"jury_id" binding:"required"`
	FilmIDs []uint64 `json:"film_ids"`
}

type RandomReq struct {
	Count  int     `json:"count"`
	JuryID *uint64 `json:"jury_id"`
}

// Films 待审影片分为待评和已评完两组
func (h *SuperJuryHandler) Films(c *gin.Context) {
	cls, err := h.svc.ListFilms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cls)
}

func (h *SuperJuryHandler) Members(c *gin.Context) {
	members, err := h.svc.Members(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *SuperJuryHandler) MemberFilms(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.MemberFilms(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Assign 批量分配，逐部返回结果
func (h *SuperJuryHandler) Assign(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req AssignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "jury_id and film_ids are required")
		return
	}
	results, err := h.assignments.Assign(c.Request.Context(), req.JuryID, req.FilmIDs, who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *SuperJuryHandler) Unassign(c *gin.Context) {
	juryID, ok := pathID(c, "juryId")
	if !ok {
		return
	}
	filmID, ok := pathID(c, "filmId")
	if !ok {
		return
	}
	if err := h.assignments.Unassign(c.Request.Context(), juryID, filmID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Random 请求体可以为空
func (h *SuperJuryHandler) Random(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req RandomReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}
	out, err := h.svc.RandomSubset(c.Request.Context(), req.Count, req.JuryID, who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
