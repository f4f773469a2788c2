package handler

import (
	"net/http"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/service"

	"github.com/gin-gonic/gin"
)

type InvitationHandler struct {
	svc *service.InvitationService
}

func NewInvitationHandler(svc *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

type InviteReq struct {
	Email string         `json:"email" binding:"required"`
	Role  model.RoleName `json:"role" binding:"required"`
}

type AcceptInviteReq struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *InvitationHandler) Invite(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req InviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and role are required")
		return
	}
	inv, err := h.svc.Invite(c.Request.Context(), id.UserID, req.Email, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invitation": inv, "link": h.svc.Link(inv.Token)})
}

func (h *InvitationHandler) List(c *gin.Context) {
	list, err := h.svc.ListOpen(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []model.Invitation{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *InvitationHandler) Revoke(c *gin.Context) {
	invID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Revoke(c.Request.Context(), invID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

// Lookup 公开接口，邀请页先用它校验令牌
func (h *InvitationHandler) Lookup(c *gin.Context) {
	inv, err := h.svc.Lookup(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": inv.Email, "role": inv.Role, "expires_at": inv.ExpiresAt})
}

func (h *InvitationHandler) Accept(c *gin.Context) {
	var req AcceptInviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name and password are required")
		return
	}
	user, pair, err := h.svc.Accept(c.Request.Context(), c.Param("token"), req.Name, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionBody(user, pair))
}
