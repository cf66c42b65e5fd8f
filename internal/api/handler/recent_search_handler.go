package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gossip-server/internal/api/middleware"
	"github.com/d60-Lab/gossip-server/pkg/response"
)

// SaveRecentSearch 记录一次搜索（重复条目只刷新时间，最多保留 10 条）
// @Summary 保存最近搜索
// @Tags 搜索
// @Accept json
// @Produce json
// @Param request body targetUserRequest true "被搜索用户"
// @Success 201 {object} response.Response{data=service.RecentSearchView}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/recent-searches [post]
func (h *Handler) SaveRecentSearch(c *gin.Context) {
	var req targetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	entry, err := h.recentSvc.Save(c.Request.Context(), middleware.CurrentUserID(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, entry)
}

// ListRecentSearches 最近搜索（新到旧）
// @Summary 查询最近搜索
// @Tags 搜索
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/recent-searches [get]
func (h *Handler) ListRecentSearches(c *gin.Context) {
	entries, err := h.recentSvc.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"recent_searches": entries})
}

// DeleteRecentSearch 删除一条最近搜索，幂等
// @Summary 删除最近搜索
// @Tags 搜索
// @Param user_id path string true "被搜索用户ID"
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/recent-searches/{user_id} [delete]
func (h *Handler) DeleteRecentSearch(c *gin.Context) {
	if err := h.recentSvc.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("user_id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, nil)
}
