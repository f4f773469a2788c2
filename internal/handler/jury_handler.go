package handler

import (
	"net/http"

	"MarsAI_Festival/internal/service"

	"github.com/gin-gonic/gin"
)

// JuryHandler 评委工作台
type JuryHandler struct {
	films       *service.FilmService
	ratings     *service.RatingService
	assignments *service.AssignmentService
}

func NewJuryHandler(films *service.FilmService, ratings *service.RatingService, assignments *service.AssignmentService) *JuryHandler {
	return &JuryHandler{films: films, ratings: ratings, assignments: assignments}
}

// RateReq rating 的取值范围由评分仓储统一校验
type RateReq struct {
	Rating  *int    `json:"rating" binding:"required"`
	Comment *string `json:"comment"`
}

// MyFilms 分给自己的影片，带自己的评分
func (h *JuryHandler) MyFilms(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	list, err := h.assignments.ListAssignedFilms(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *JuryHandler) FilmDetail(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	film, err := h.films.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := h.ratings.Summary(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	own, err := h.ratings.OwnRating(ctx, id, who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"film":            film,
		"average_rating":  summary.AverageRating,
		"rating_count":    summary.RatingCount,
		"review_complete": summary.ReviewComplete,
		"my_rating":       own,
	})
}

// Rate 打分或改分
func (h *JuryHandler) Rate(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "rating is required")
		return
	}
	res, err := h.ratings.Rate(c.Request.Context(), id, who.UserID, *req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *JuryHandler) Rankings(c *gin.Context) {
	list, err := h.films.Rankings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
