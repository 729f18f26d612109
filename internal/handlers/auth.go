package handlers

import (
	"net/http"
	"strings"

	"buildops/internal/database"
	"buildops/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

type userResponse struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Password) < 6 {
		respondError(c, http.StatusBadRequest, "username or password too short")
		return
	}

	role := models.UserRole(req.Role)

	// самостоятельно можно стать только manager / foreman / viewer
	switch role {
	case models.RoleManager, models.RoleForeman, models.RoleViewer:
	default:
		respondError(c, http.StatusBadRequest, "invalid role")
		return
	}

	var count int64
	if err := h.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		h.fail(c, err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "user already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.fail(c, err)
		return
	}
	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := h.db.Create(&user).Error; err != nil {
		h.fail(c, err)
		return
	}

	database.CreateAuditLog(h.db, user.ID, "user", user.ID, "create", "registered as "+string(role))

	c.JSON(http.StatusCreated, userResponse{ID: user.ID, Username: user.Username, Role: user.Role})
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var user models.User
	if err := h.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	if err := sess.Save(); err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	c.JSON(http.StatusOK, userResponse{ID: user.ID, Username: user.Username, Role: user.Role})
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	u, ok := c.Get("CurrentUser")
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	user := u.(models.User)
	c.JSON(http.StatusOK, userResponse{ID: user.ID, Username: user.Username, Role: user.Role})
}
