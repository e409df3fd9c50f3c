package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hirelane/hirelane-identity/internal/otp"
	"github.com/hirelane/hirelane-identity/internal/security"
	"github.com/hirelane/hirelane-identity/internal/util"
	log "github.com/sirupsen/logrus"
)

// invalidCodeMessage is the only failure message verification ever returns.
const invalidCodeMessage = "invalid or expired code"

// OTPHandler serves code send and verify endpoints.
type OTPHandler struct {
	codes   *otp.Service
	tickets *security.TicketSigner
}

// NewOTPHandler constructs an OTPHandler.
func NewOTPHandler(codes *otp.Service, tickets *security.TicketSigner) *OTPHandler {
	return &OTPHandler{codes: codes, tickets: tickets}
}

// sendRequest defines the request body for sending a code.
type sendRequest struct {
	Identifier string `json:"identifier" binding:"required,max=320"`
	Purpose    string `json:"purpose" binding:"required,otp_purpose"`
}

// Send issues a code and delivers it.
func (h *OTPHandler) Send(c *gin.Context) {
	var body sendRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	challenge, errGenerate := h.codes.Generate(c.Request.Context(), body.Purpose, body.Identifier)
	if errGenerate != nil {
		WriteGenerateError(c, errGenerate)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"expires_at": challenge.ExpiresAt})
}

// WriteGenerateError maps otp.Service.Generate errors to responses.
func WriteGenerateError(c *gin.Context, err error) {
	var limited *otp.RateLimitedError
	switch {
	case errors.Is(err, otp.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.As(err, &limited):
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(limited.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	case errors.Is(err, otp.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	case errors.Is(err, otp.ErrDelivery):
		c.JSON(http.StatusBadGateway, gin.H{"error": "code delivery failed"})
	default:
		log.WithError(err).Error("otp: generate failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// verifyRequest defines the request body for verifying a code.
type verifyRequest struct {
	Identifier string `json:"identifier" binding:"required,max=320"`
	Purpose    string `json:"purpose" binding:"required,otp_purpose"`
	Code       string `json:"code" binding:"required,len=6,numeric"`
}

// Verify checks a code and returns a verification ticket on success.
// Every failure reason maps to the same 401 body.
func (h *OTPHandler) Verify(c *gin.Context) {
	var body verifyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, errVerify := h.codes.Verify(c.Request.Context(), body.Identifier, body.Purpose, body.Code)
	if errVerify != nil {
		if errors.Is(errVerify, otp.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		log.WithError(errVerify).Error("otp: verify failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !result.Valid {
		log.WithFields(log.Fields{
			"identifier": util.MaskIdentifier(body.Identifier),
			"purpose":    body.Purpose,
			"reason":     result.Reason,
		}).Debug("otp: verification rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": invalidCodeMessage})
		return
	}

	identifier := otp.NormalizeIdentifier(body.Identifier)
	purpose, _ := otp.ParsePurpose(body.Purpose)
	ticket, expiresAt, errIssue := h.tickets.Issue(identifier, string(purpose))
	if errIssue != nil {
		log.WithError(errIssue).Error("otp: issue ticket failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":             true,
		"ticket":            ticket,
		"ticket_expires_at": expiresAt,
	})
}

// introspectRequest defines the request body for ticket introspection.
type introspectRequest struct {
	Ticket string `json:"ticket" binding:"required"`
}

// Introspect validates a verification ticket for downstream services.
func (h *OTPHandler) Introspect(c *gin.Context) {
	var body introspectRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	claims, errParse := h.tickets.Parse(body.Ticket)
	if errParse != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid ticket"})
		return
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, gin.H{
		"identifier": claims.Identifier,
		"purpose":    claims.Purpose,
		"expires_at": expiresAt,
	})
}
