package sessions

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")
	token := "2f1e8a9c-0000-4000-8000-123456789abc"

	decoded, err := codec.Decode(codec.Encode(token))
	if err != nil {
		t.Fatalf("Decode(Encode(token)) error = %v", err)
	}
	if decoded != token {
		t.Errorf("decoded = %q, want %q", decoded, token)
	}
}

func TestCodecRejectsTampering(t *testing.T) {
	codec := NewCodec("test-secret")
	value := codec.Encode("real-token")

	cases := map[string]string{
		"swapped token":     "other-token" + value[len("real-token"):],
		"truncated":         value[:len(value)-4],
		"no signature":      "real-token",
		"empty":             "",
		"foreign signature": NewCodec("other-secret").Encode("real-token"),
	}
	for name, tampered := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := codec.Decode(tampered); err == nil {
				t.Errorf("Decode(%q) should fail", tampered)
			}
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	codec := NewCodec("test-secret")
	session := &Session{Token: "abc", ExpiresAt: time.Now().Add(time.Hour)}

	rec := httptest.NewRecorder()
	codec.SetCookie(rec, session)

	r := httptest.NewRequest(http.MethodGet, "/listings", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}

	token, err := codec.TokenFromRequest(r)
	if err != nil {
		t.Fatalf("TokenFromRequest() error = %v", err)
	}
	if token != "abc" {
		t.Errorf("token = %q, want abc", token)
	}
}

func TestTokenFromRequestWithoutCookie(t *testing.T) {
	codec := NewCodec("test-secret")
	r := httptest.NewRequest(http.MethodGet, "/listings", nil)
	if _, err := codec.TokenFromRequest(r); err == nil {
		t.Error("a cookieless request should not yield a token")
	}
}

func TestSetCookieAttributes(t *testing.T) {
	codec := NewCodec("test-secret")
	session := &Session{Token: "abc", ExpiresAt: time.Now().Add(time.Hour)}

	rec := httptest.NewRecorder()
	codec.SetCookie(rec, session)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if !c.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if c.Path != "/" {
		t.Errorf("cookie path = %q, want /", c.Path)
	}
}
