package security

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	"github.com/pquerna/otp/totp"
)

// TOTPKey is a freshly generated authenticator secret.
type TOTPKey struct {
	Secret  string
	URL     string
	QRImage string // PNG data URL, empty when rendering fails.
}

// GenerateTOTPKey creates a TOTP secret for the given account.
func GenerateTOTPKey(issuer, account string) (TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return TOTPKey{}, fmt.Errorf("generate totp key: %w", err)
	}

	qrImage := ""
	if img, errImage := key.Image(220, 220); errImage == nil {
		var buf bytes.Buffer
		if errEncode := png.Encode(&buf, img); errEncode == nil {
			qrImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	return TOTPKey{Secret: key.Secret(), URL: key.URL(), QRImage: qrImage}, nil
}

// ValidateTOTP checks an authenticator code against secret.
func ValidateTOTP(code, secret string) bool {
	code = strings.TrimSpace(code)
	if code == "" || strings.TrimSpace(secret) == "" {
		return false
	}
	return totp.Validate(code, secret)
}
