package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var settingKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,63}$`)

// SettingsHandler reads and writes operator settings.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// List returns all stored settings.
func (h *SettingsHandler) List(c *gin.Context) {
	var rows []models.Setting
	if errFind := h.db.WithContext(c.Request.Context()).Order("key ASC").Find(&rows).Error; errFind != nil {
		log.WithError(errFind).Error("settings: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	c.JSON(http.StatusOK, gin.H{
		"settings":   values,
		"updated_at": settings.UpdatedAt(),
	})
}

// putSettingRequest wraps the new value.
type putSettingRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}

// Put stores one setting. Known keys are type checked.
func (h *SettingsHandler) Put(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if !settingKeyPattern.MatchString(key) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
		return
	}
	var body putSettingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var value any
	switch key {
	case settings.SiteNameKey:
		var name string
		if errUnmarshal := json.Unmarshal(body.Value, &name); errUnmarshal != nil || strings.TrimSpace(name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "site name must be a non-empty string"})
			return
		}
		value = strings.TrimSpace(name)
	case settings.RetentionDaysKey:
		days, ok := settings.ParseInt(body.Value)
		if !ok || days < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "retention days must be a non-negative integer"})
			return
		}
		value = days
	case settings.WebAuthnRPIDKey, settings.WebAuthnRPNameKey:
		text := settings.ParseString(body.Value)
		if text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a non-empty string"})
			return
		}
		value = text
	case settings.WebAuthnOriginsKey:
		origins := settings.ParseStrings(body.Value)
		if len(origins) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "origins must be a list of urls"})
			return
		}
		for _, origin := range origins {
			if parsed, errParse := url.Parse(origin); errParse != nil || parsed.Scheme == "" || parsed.Host == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "origins must be a list of urls"})
				return
			}
		}
		value = origins
	default:
		value = body.Value
	}

	if errPut := settings.Put(c.Request.Context(), h.db, key, value); errPut != nil {
		log.WithError(errPut).WithField("key", key).Error("settings: put failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	stored, _ := settings.Value(key)
	c.JSON(http.StatusOK, gin.H{"key": key, "value": stored})
}
