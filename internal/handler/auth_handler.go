package handler

import (
	"net/http"

	"Member_Registry/internal/middleware"
	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc          *service.AuthService
	cookieSecure bool
	cookieMaxAge int
}

// LoginReq 登录请求体
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(svc *service.AuthService, cookieSecure bool, cookieMaxAge int) *AuthHandler {
	return &AuthHandler{svc: svc, cookieSecure: cookieSecure, cookieMaxAge: cookieMaxAge}
}

// Login 令牌同时写入 httpOnly cookie 和响应体
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, service.ErrCredentialsMissing)
		return
	}

	res, err := h.svc.Login(c.Request.Context(), actorFrom(c), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setCookie(c, res.Token, h.cookieMaxAge)
	c.JSON(http.StatusOK, res)
}

// Logout 只清 cookie，令牌在过期前仍然有效
func (h *AuthHandler) Logout(c *gin.Context) {
	h.svc.Logout(actorFrom(c))
	h.setCookie(c, "", -1)
	success(c)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	if userID == "" {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	user, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) SetupStatus(c *gin.Context) {
	required, err := h.svc.SetupRequired(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"setupRequired": required})
}

func (h *AuthHandler) Setup(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if err := h.svc.Setup(c.Request.Context(), req.Email, req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Admin account created. You can now log in.",
	})
}

// Register 新账号的令牌写入 cookie；管理员替别人注册时不覆盖自己的 cookie
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	actor := actorFrom(c)
	res, err := h.svc.Register(c.Request.Context(), actor, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	if actor.UserID == "" {
		h.setCookie(c, res.Token, h.cookieMaxAge)
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookieName, value, maxAge, "/", "", h.cookieSecure, true)
}
