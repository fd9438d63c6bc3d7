package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
)

const (
	CSRFCookieName = "soberano_csrf"
	CSRFHeaderName = "X-CSRF-Token"
	csrfFormField  = "csrf_token"
	csrfMaxAge     = 86400
	tokenSize      = 32
)

// CSRFProtection guards state-changing requests with a double-submit
// token. Any web page can make a browser post to a localhost port, so
// the local server needs this even without user accounts.
type CSRFProtection struct {
	secretKey []byte
}

// NewCSRFProtection uses secret to sign tokens. An empty secret yields a
// random per-process key, so tokens do not survive a restart.
func NewCSRFProtection(secret []byte) *CSRFProtection {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	return &CSRFProtection{secretKey: secret}
}

// Middleware issues the token cookie and validates unsafe methods. Requests
// the browser marks as cross-site are refused outright.
func (c *CSRFProtection) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(CSRFCookieName); err != nil {
			c.setCSRFCookie(w, r, c.GenerateToken())
		}

		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("Sec-Fetch-Site") == "cross-site" || !c.validateRequest(r) {
			http.Error(w, "Forbidden - Invalid CSRF token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GenerateToken returns base64(32 random bytes + HMAC-SHA256 of them).
func (c *CSRFProtection) GenerateToken() string {
	randomBytes := make([]byte, tokenSize)
	_, _ = rand.Read(randomBytes)

	mac := hmac.New(sha256.New, c.secretKey)
	mac.Write(randomBytes)

	token := append(randomBytes, mac.Sum(nil)...)
	return base64.URLEncoding.EncodeToString(token)
}

// ValidateToken checks the token's signature.
func (c *CSRFProtection) ValidateToken(token string) bool {
	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil || len(decoded) != tokenSize+sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, c.secretKey)
	mac.Write(decoded[:tokenSize])
	return hmac.Equal(decoded[tokenSize:], mac.Sum(nil))
}

// validateRequest requires the header (or form field) token to equal the
// cookie token and carry a valid signature.
func (c *CSRFProtection) validateRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return false
	}

	requestToken := r.Header.Get(CSRFHeaderName)
	if requestToken == "" {
		requestToken = r.FormValue(csrfFormField)
	}
	if requestToken == "" || !hmac.Equal([]byte(requestToken), []byte(cookie.Value)) {
		return false
	}
	return c.ValidateToken(requestToken)
}

func (c *CSRFProtection) setCSRFCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   csrfMaxAge,
		Secure:   isTLS(r),
		HttpOnly: false, // the dashboard script echoes it in a header
		SameSite: http.SameSiteStrictMode,
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
