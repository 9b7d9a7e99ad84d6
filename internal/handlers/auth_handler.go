package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"estatecrm/internal/models"
	"estatecrm/internal/services"
)

type AuthHandler struct {
	userService  services.UserService
	authService  services.AuthService
	resetService services.PasswordResetService
}

func NewAuthHandler(userService services.UserService, authService services.AuthService, resetService services.PasswordResetService) *AuthHandler {
	return &AuthHandler{userService: userService, authService: authService, resetService: resetService}
}

// @Summary      Вход в систему
// @Description  Аутентифицирует пользователя и возвращает токен доступа
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Данные для входа"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(req.Email)
	log.Printf("[auth][login] attempt email=%q", email)

	user, err := h.userService.GetUserByEmail(email)
	if err != nil || user == nil {
		log.Printf("[auth][login] user not found by email=%q: err=%v", email, err)
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !h.authService.CheckPassword(user.PasswordHash, strings.TrimSpace(req.Password)) {
		log.Printf("[auth][login] password mismatch for userID=%d email=%q", user.ID, email)
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.TeamMemberID, user.Role)
	if err != nil {
		log.Printf("[auth][login] sign token failed for userID=%d: err=%v", user.ID, err)
		respondError(c, http.StatusInternalServerError, "Failed to generate access token")
		return
	}

	log.Printf("[auth][login] success userID=%d role=%s took=%s", user.ID, user.Role, time.Since(start).Truncate(time.Millisecond))

	// у модели PasswordHash помечен json:"-", наружу не уйдёт
	respondData(c, http.StatusOK, gin.H{"user": user, "token": token})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.resetService.RequestReset(req.Email); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	// всегда 200 — не палим существование аккаунта
	respondData(c, http.StatusOK, gin.H{"message": "If the account exists, a reset email has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.resetService.ResetPassword(req.Token, req.Password); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "Password updated"})
}
