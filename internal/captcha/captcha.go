package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Baaaki/heritage-museum/internal/config"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"go.uber.org/zap"
)

var ErrCaptchaFailed = errors.New("captcha verification failed")

// Verifier checks a client-supplied captcha token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

func New(cfg config.Captcha) Verifier {
	if !cfg.Enabled {
		return Disabled{}
	}
	return NewHTTPVerifier(cfg.VerifyURL, cfg.Secret, &http.Client{Timeout: 5 * time.Second})
}

// Disabled accepts every token.
type Disabled struct{}

func (Disabled) Verify(context.Context, string, string) error { return nil }

// HTTPVerifier talks to a reCAPTCHA-compatible siteverify endpoint.
type HTTPVerifier struct {
	verifyURL string
	secret    string
	client    *http.Client
}

func NewHTTPVerifier(verifyURL, secret string, client *http.Client) *HTTPVerifier {
	return &HTTPVerifier{verifyURL: verifyURL, secret: secret, client: client}
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify returns ErrCaptchaFailed when the provider rejects the token.
// Transport and decode problems are returned as-is.
func (v *HTTPVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrCaptchaFailed
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha provider returned status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode captcha response: %w", err)
	}
	if !body.Success {
		logger.Log.Warn("Captcha rejected",
			zap.Strings("error_codes", body.ErrorCodes),
		)
		return ErrCaptchaFailed
	}
	return nil
}
