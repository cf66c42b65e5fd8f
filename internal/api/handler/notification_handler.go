package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gossip-server/internal/api/middleware"
	"github.com/d60-Lab/gossip-server/pkg/response"
)

// ListNotifications 本人通知（新到旧），悬空引用的条目不渲染
// @Summary 查询通知
// @Tags 通知
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	notifications, err := h.notifSvc.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"notifications": notifications})
}

// MarkNotificationRead 标记已读，只有归属人可操作
// @Summary 标记通知已读
// @Tags 通知
// @Param id path string true "通知ID"
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.notifSvc.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, nil)
}
