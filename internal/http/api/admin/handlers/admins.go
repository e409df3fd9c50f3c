package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hirelane/hirelane-identity/internal/admins"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/security"
	"github.com/hirelane/hirelane-identity/internal/session"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminsHandler manages operator accounts.
type AdminsHandler struct {
	db       *gorm.DB
	sessions *session.Manager
}

// NewAdminsHandler constructs an AdminsHandler.
func NewAdminsHandler(db *gorm.DB, sessions *session.Manager) *AdminsHandler {
	return &AdminsHandler{db: db, sessions: sessions}
}

// List returns every admin ordered by email.
func (h *AdminsHandler) List(c *gin.Context) {
	var rows []models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).Order("email ASC").Find(&rows).Error; errFind != nil {
		log.WithError(errFind).Error("admins: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	out := make([]adminView, 0, len(rows))
	for i := range rows {
		out = append(out, toAdminView(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"admins": out})
}

// createAdminRequest defines the request body for creating an admin.
type createAdminRequest struct {
	Email    string `json:"email" binding:"required"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Create adds an admin.
func (h *AdminsHandler) Create(c *gin.Context) {
	var body createAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	admin, errCreate := admins.Create(c.Request.Context(), h.db, admins.CreateParams{
		Email:    body.Email,
		Role:     body.Role,
		Password: body.Password,
	})
	switch {
	case errCreate == nil:
		c.JSON(http.StatusCreated, toAdminView(admin))
	case errors.Is(errCreate, admins.ErrExists):
		c.JSON(http.StatusConflict, gin.H{"error": "admin already exists"})
	case errors.Is(errCreate, admins.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
	case errors.Is(errCreate, admins.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
	default:
		log.WithError(errCreate).Error("admins: create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// updateAdminRequest defines the mutable admin fields. Absent fields are left unchanged.
type updateAdminRequest struct {
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"` // Empty string clears the password.
}

// Update changes role, active flag or password. Deactivating an admin revokes their sessions.
func (h *AdminsHandler) Update(c *gin.Context) {
	identity, ok := currentAdmin(c)
	if !ok {
		return
	}
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	var admin models.Admin
	if errFind := h.db.WithContext(ctx).First(&admin, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "admin not found"})
			return
		}
		log.WithError(errFind).Error("admins: load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	self := admin.Email == identity.OwnerEmail

	updates := map[string]any{}
	if body.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*body.Role))
		if !admins.ValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		if self && role != admins.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot change your own role"})
			return
		}
		updates["role"] = role
	}
	if body.Active != nil {
		if self && !*body.Active {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate yourself"})
			return
		}
		updates["active"] = *body.Active
	}
	if body.Password != nil {
		hash := ""
		if password := strings.TrimSpace(*body.Password); password != "" {
			var errHash error
			hash, errHash = security.HashPassword(password)
			if errHash != nil {
				log.WithError(errHash).Error("admins: hash password failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
		}
		updates["password"] = hash
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	if errUpdate := h.db.WithContext(ctx).Model(&admin).Updates(updates).Error; errUpdate != nil {
		log.WithError(errUpdate).Error("admins: update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if body.Active != nil && !*body.Active {
		if _, errRevoke := h.sessions.RevokeAllForOwner(ctx, admin.Email); errRevoke != nil {
			log.WithError(errRevoke).WithField("admin_id", admin.ID).Error("admins: revoke sessions failed")
		}
	}
	if errReload := h.db.WithContext(ctx).First(&admin, id).Error; errReload != nil {
		log.WithError(errReload).Error("admins: reload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toAdminView(&admin))
}
