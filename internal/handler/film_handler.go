package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/service"

	"github.com/gin-gonic/gin"
)

type FilmHandler struct {
	svc     *service.FilmService
	maxBody int64
}

// NewFilmHandler maxBody 是一次投稿请求体的上限
func NewFilmHandler(svc *service.FilmService, maxBody int64) *FilmHandler {
	return &FilmHandler{svc: svc, maxBody: maxBody}
}

// SubmitForm 公开投稿表单的文本字段
type SubmitForm struct {
	Title             string `form:"title"`
	Country           string `form:"country"`
	Description       string `form:"description"`
	YoutubeLink       string `form:"youtube_link"`
	AIToolsUsed       string `form:"ai_tools_used"`
	AICertification   string `form:"ai_certification"`
	DirectorFirstname string `form:"director_firstname"`
	DirectorLastname  string `form:"director_lastname"`
	DirectorEmail     string `form:"director_email"`
	DirectorBio       string `form:"director_bio"`
	DirectorSchool    string `form:"director_school"`
	DirectorWebsite   string `form:"director_website"`
	SocialInstagram   string `form:"social_instagram"`
	SocialYoutube     string `form:"social_youtube"`
	SocialVimeo       string `form:"social_vimeo"`
}

type StatusReq struct {
	Status          model.FilmStatus `json:"status" binding:"required"`
	RejectionReason string           `json:"rejection_reason"`
}

type CategoriesReq struct {
	CategoryIDs []uint64 `json:"category_ids"`
}

// Submit 公开投稿，multipart 表单
func (h *FilmHandler) Submit(c *gin.Context) {
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}
	var form SubmitForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, service.ErrFileTooLarge)
			return
		}
		badRequest(c, "invalid multipart form")
		return
	}

	in := service.SubmitInput{
		Title:             form.Title,
		Country:           form.Country,
		Description:       form.Description,
		YoutubeLink:       form.YoutubeLink,
		AIToolsUsed:       form.AIToolsUsed,
		AICertification:   truthy(form.AICertification),
		DirectorFirstname: form.DirectorFirstname,
		DirectorLastname:  form.DirectorLastname,
		DirectorEmail:     form.DirectorEmail,
		DirectorBio:       form.DirectorBio,
		DirectorSchool:    form.DirectorSchool,
		DirectorWebsite:   form.DirectorWebsite,
		SocialInstagram:   form.SocialInstagram,
		SocialYoutube:     form.SocialYoutube,
		SocialVimeo:       form.SocialVimeo,
	}
	// 缺文件交给 service 统一报错
	in.Film, _ = c.FormFile("film")
	in.Poster, _ = c.FormFile("poster")
	in.Thumbnail, _ = c.FormFile("thumbnail")

	film, err := h.svc.Submit(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, film)
}

func (h *FilmHandler) Catalog(c *gin.Context) {
	h.listByStatus(c, model.FilmApproved)
}

func (h *FilmHandler) PublicGet(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	film, err := h.svc.GetPublic(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, film)
}

func (h *FilmHandler) ListPending(c *gin.Context) {
	h.listByStatus(c, model.FilmPending)
}

func (h *FilmHandler) ListApproved(c *gin.Context) {
	h.listByStatus(c, model.FilmApproved)
}

func (h *FilmHandler) listByStatus(c *gin.Context, status model.FilmStatus) {
	list, err := h.svc.ListByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateStatus 审核影片
func (h *FilmHandler) UpdateStatus(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req StatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	film, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status, req.RejectionReason, who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, film)
}

func (h *FilmHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *FilmHandler) SetCategories(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CategoriesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "category_ids must be a list of ids")
		return
	}
	film, err := h.svc.SetCategories(c.Request.Context(), id, req.CategoryIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, film)
}

// truthy 表单里的勾选框可能是 true/1/on
func truthy(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "on" || v == "yes" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
