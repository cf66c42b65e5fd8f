package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gossip-server/internal/api/middleware"
	"github.com/d60-Lab/gossip-server/internal/service"
	"github.com/d60-Lab/gossip-server/pkg/response"
)

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Username    string `json:"username" binding:"required,username"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=64"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
}

type verifyOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register 注册并下发邮箱验证码
// @Summary 注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 201 {object} response.Response{data=service.SafeUser}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, err := h.authSvc.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, gin.H{
		"user":    user,
		"message": "Registration successful. Please check your email for verification code.",
	})
}

// VerifyOtp 校验邮箱验证码并激活账号
// @Summary 邮箱验证
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body verifyOtpRequest true "验证码"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/verify-otp [post]
func (h *Handler) VerifyOtp(c *gin.Context) {
	var req verifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, tokens, err := h.authSvc.VerifyOtp(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"user": user, "tokens": tokens})
}

// ResendOtp 重发验证码，响应不暴露邮箱是否存在
// @Summary 重发验证码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body emailRequest true "邮箱"
// @Success 200 {object} response.Response
// @Router /api/v1/auth/resend-otp [post]
func (h *Handler) ResendOtp(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.authSvc.ResendOtp(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "If an account exists, a verification code has been sent."})
}

// Login 邮箱或用户名登录
// @Summary 登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body loginRequest true "凭证"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, tokens, err := h.authSvc.Login(c.Request.Context(), req.Identifier, req.Password,
		c.GetHeader("User-Agent"), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"user": user, "tokens": tokens})
}

// Refresh 轮换刷新令牌
// @Summary 刷新令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body refreshRequest true "刷新令牌"
// @Success 200 {object} response.Response{data=service.AuthTokens}
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	tokens, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, tokens)
}

// Logout 注销会话
// @Summary 注销
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body refreshRequest true "刷新令牌"
// @Success 200 {object} response.Response
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Logged out successfully"})
}

// Me 当前用户
// @Summary 当前用户
// @Tags 认证
// @Produce json
// @Success 200 {object} response.Response{data=service.SafeUser}
// @Router /api/v1/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, err := h.authSvc.Me(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// UsernameAvailable 用户名可用性
// @Summary 用户名可用性
// @Tags 认证
// @Param username query string true "用户名"
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/auth/username-available [get]
func (h *Handler) UsernameAvailable(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		response.BadRequest(c, "username is required")
		return
	}
	available, err := h.authSvc.UsernameAvailable(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"available": available})
}
