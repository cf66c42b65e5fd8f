package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gossip-server/internal/api/middleware"
	"github.com/d60-Lab/gossip-server/pkg/response"
)

type targetUserRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type requestIDRequest struct {
	RequestID string `json:"request_id" binding:"required"`
}

// SendFollowRequest 发送关注请求（反向请求在场时自动合并成 mutual）
// @Summary 发送关注请求
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body targetUserRequest true "目标用户"
// @Success 201 {object} response.Response{data=service.ActionResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/follows/request [post]
func (h *Handler) SendFollowRequest(c *gin.Context) {
	var req targetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.relSvc.SendRequest(c.Request.Context(), middleware.CurrentUserID(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// AcceptFollowRequest 接受关注请求（只建单向边）
// @Summary 接受关注请求
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body requestIDRequest true "请求ID"
// @Success 200 {object} response.Response{data=service.ActionResult}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/follows/accept [post]
func (h *Handler) AcceptFollowRequest(c *gin.Context) {
	var req requestIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.relSvc.AcceptRequest(c.Request.Context(), middleware.CurrentUserID(c), req.RequestID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// RejectFollowRequest 拒绝关注请求
// @Summary 拒绝关注请求
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body requestIDRequest true "请求ID"
// @Success 200 {object} response.Response{data=service.ActionResult}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/follows/reject [post]
func (h *Handler) RejectFollowRequest(c *gin.Context) {
	var req requestIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.relSvc.RejectRequest(c.Request.Context(), middleware.CurrentUserID(c), req.RequestID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// CancelFollowRequest 发送方撤回自己的出站请求（按目标用户定位）
// @Summary 撤回关注请求
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body targetUserRequest true "目标用户"
// @Success 200 {object} response.Response{data=service.ActionResult}
// @Failure 404 {object} response.Response
// @Router /api/v1/follows/cancel [post]
func (h *Handler) CancelFollowRequest(c *gin.Context) {
	var req targetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.relSvc.CancelRequest(c.Request.Context(), middleware.CurrentUserID(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// Unfollow 取消关注（只删单向边，mutual 退化为对方视角 following）
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body targetUserRequest true "目标用户"
// @Success 200 {object} response.Response{data=service.ActionResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/follows/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	var req targetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.relSvc.Unfollow(c.Request.Context(), middleware.CurrentUserID(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// GetPendingRequests 待处理的入站请求（新到旧）
// @Summary 待处理关注请求
// @Tags 关系链
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/follows/requests [get]
func (h *Handler) GetPendingRequests(c *gin.Context) {
	requests, err := h.relSvc.PendingRequests(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"requests": requests})
}

// GetRelationshipStatus 档案页三值连接状态
// @Summary 查询连接状态
// @Tags 关系链
// @Param user_id path string true "目标用户ID"
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/follows/status/{user_id} [get]
func (h *Handler) GetRelationshipStatus(c *gin.Context) {
	state, err := h.relSvc.ProfileStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"relationship_status": state})
}

// GetConnections 互相关注（connected）的用户
// @Summary 查询连接列表
// @Tags 关系链
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/follows/connections [get]
func (h *Handler) GetConnections(c *gin.Context) {
	connections, err := h.relSvc.ConnectedUsers(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"connections": connections})
}
