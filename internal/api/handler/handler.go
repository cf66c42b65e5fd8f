package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gossip-server/internal/service"
	"github.com/d60-Lab/gossip-server/pkg/response"
)

// Handler 聚合各服务的 HTTP 入口
type Handler struct {
	authSvc   service.AuthService
	relSvc    service.RelationshipService
	userSvc   service.UserService
	notifSvc  service.NotificationService
	recentSvc service.RecentSearchService
}

func New(
	authSvc service.AuthService,
	relSvc service.RelationshipService,
	userSvc service.UserService,
	notifSvc service.NotificationService,
	recentSvc service.RecentSearchService,
) *Handler {
	return &Handler{
		authSvc:   authSvc,
		relSvc:    relSvc,
		userSvc:   userSvc,
		notifSvc:  notifSvc,
		recentSvc: recentSvc,
	}
}

// respondError 业务错误按分类映射状态码，其余一律内部错误
func respondError(c *gin.Context, err error) {
	kind, ok := service.KindOf(err)
	if !ok {
		response.InternalError(c, err)
		return
	}
	switch kind {
	case service.KindSelfReference:
		response.BadRequest(c, err.Error())
	case service.KindNotFound:
		response.NotFound(c, err.Error())
	case service.KindForbidden:
		response.Forbidden(c, err.Error())
	case service.KindConflict:
		response.Conflict(c, err.Error())
	case service.KindUnauthorized:
		response.Unauthorized(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
