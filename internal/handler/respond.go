package handler

import (
	"errors"
	"net/http"
	"strconv"

	"MarsAI_Festival/internal/middleware"
	"MarsAI_Festival/internal/pkg"
	"MarsAI_Festival/internal/service"

	"github.com/gin-gonic/gin"
)

// statusOf 业务错误到 HTTP 状态码，未识别的一律 500
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrRatingOutOfRange),
		errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, service.ErrMissingFile):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, pkg.ErrRefreshExpired),
		errors.Is(err, pkg.ErrRefreshInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrCannotDeleteSelf):
		return http.StatusForbidden
	case errors.Is(err, service.ErrFilmNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrJuryNotFound),
		errors.Is(err, service.ErrInvitationNotFound),
		errors.Is(err, service.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrInvitationPending),
		errors.Is(err, service.ErrCategoryExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvitationExpired):
		return http.StatusGone
	case errors.Is(err, service.ErrTooManySubmissions):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// respondError 500 只回通用信息，原始错误交给访问日志
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"msg": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"msg": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"msg": msg})
}

// pathID 解析路径里的数字 id，失败时已写好 400
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// identity 取当前登录用户，路由都挂在 Auth 之后
func identity(c *gin.Context) (*middleware.Identity, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "unauthorized"})
		return nil, false
	}
	return id, true
}
