// Package front registers the public one-time code endpoints used by candidate and signup flows.
package front

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/hirelane/hirelane-identity/internal/http/api/front/handlers"
	"github.com/hirelane/hirelane-identity/internal/otp"
	"github.com/hirelane/hirelane-identity/internal/security"
	log "github.com/sirupsen/logrus"
)

var registerValidatorsOnce sync.Once

// RegisterValidators installs the otp_purpose binding tag on gin's validator.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Warn("front: gin validator engine is not go-playground, otp_purpose disabled")
			return
		}
		if errRegister := v.RegisterValidation("otp_purpose", validatePurpose); errRegister != nil {
			log.WithError(errRegister).Error("front: register otp_purpose validator failed")
		}
	})
}

func validatePurpose(fl validator.FieldLevel) bool {
	_, errParse := otp.ParsePurpose(fl.Field().String())
	return errParse == nil
}

// RegisterFrontRoutes registers the /v0/otp endpoints.
func RegisterFrontRoutes(r *gin.Engine, codes *otp.Service, tickets *security.TicketSigner) {
	if r == nil || codes == nil || tickets == nil {
		return
	}
	RegisterValidators()

	front := r.Group("/v0/otp")
	otpHandler := handlers.NewOTPHandler(codes, tickets)
	front.POST("/send", otpHandler.Send)
	front.POST("/verify", otpHandler.Verify)
	front.POST("/tickets/introspect", otpHandler.Introspect)
}
