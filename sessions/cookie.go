package sessions

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
)

// CookieName is the name of the session cookie.
const CookieName = "wanderlust_session"

// ErrBadCookie is returned when a cookie value fails signature verification.
// A tampered or truncated cookie is treated exactly like no cookie at all.
var ErrBadCookie = errors.New("invalid session cookie")

// Codec signs and verifies session cookie values. The cookie carries
// "token.signature" where the signature is an HMAC-SHA256 of the token under
// the configured session secret, so a client cannot mint or alter tokens.
// The token itself stays opaque; all session state lives server-side.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec signing with the given secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode produces the signed cookie value for a token.
func (c *Codec) Encode(token string) string {
	return token + "." + c.sign(token)
}

// Decode verifies a cookie value and returns the embedded token.
func (c *Codec) Decode(value string) (string, error) {
	token, sig, ok := strings.Cut(value, ".")
	if !ok || token == "" {
		return "", ErrBadCookie
	}
	// Constant-time comparison; a timing oracle here would let an attacker
	// forge signatures byte by byte.
	if !hmac.Equal([]byte(sig), []byte(c.sign(token))) {
		return "", ErrBadCookie
	}
	return token, nil
}

func (c *Codec) sign(token string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SetCookie writes the signed session cookie for a session. HttpOnly keeps
// it away from page scripts; SameSite=Lax matches the browsing-flow usage.
func (c *Codec) SetCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    c.Encode(session.Token),
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func (c *Codec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest extracts and verifies the session token from a request's
// cookie. Missing and tampered cookies both come back as ErrBadCookie wrapped
// over http.ErrNoCookie semantics — callers only care that there is no
// usable token.
func (c *Codec) TokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrBadCookie
	}
	return c.Decode(cookie.Value)
}
