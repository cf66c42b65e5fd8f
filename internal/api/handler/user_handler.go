package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gossip-server/internal/api/middleware"
	"github.com/d60-Lab/gossip-server/pkg/response"
)

// SearchUsers 用户名前缀搜索，每行带 viewer 视角的派生关系
// @Summary 搜索用户
// @Tags 用户
// @Param q query string true "用户名前缀"
// @Param limit query int false "条数" default(20)
// @Param offset query int false "偏移" default(0)
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/search [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	results, err := h.userSvc.Search(c.Request.Context(), middleware.CurrentUserID(c), c.Query("q"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"users": results})
}

// GetUserByID 用户档案 + 派生关系；自查按惯例返回 not_following
// @Summary 查询用户档案
// @Tags 用户
// @Param user_id path string true "用户ID"
// @Produce json
// @Success 200 {object} response.Response{data=service.UserSearchResult}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{user_id} [get]
func (h *Handler) GetUserByID(c *gin.Context) {
	result, err := h.userSvc.GetByID(c.Request.Context(), middleware.CurrentUserID(c), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if result == nil {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, result)
}

// GetFollowers 粉丝列表（冗余表，最终一致）
// @Summary 查询粉丝列表
// @Tags 用户
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/{user_id}/followers [get]
func (h *Handler) GetFollowers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	followers, err := h.relSvc.Followers(c.Request.Context(), c.Param("user_id"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "followers": followers})
}
