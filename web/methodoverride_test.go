package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMethodOverride(t *testing.T) {
	cases := []struct {
		name   string
		method string
		target string
		want   string
	}{
		{name: "post with delete override", method: http.MethodPost, target: "/listings/1?_method=DELETE", want: http.MethodDelete},
		{name: "post with put override", method: http.MethodPost, target: "/listings/1?_method=PUT", want: http.MethodPut},
		{name: "plain post untouched", method: http.MethodPost, target: "/listings", want: http.MethodPost},
		{name: "get cannot be overridden", method: http.MethodGet, target: "/listings/1?_method=DELETE", want: http.MethodGet},
		{name: "unknown verb ignored", method: http.MethodPost, target: "/listings/1?_method=PATCH", want: http.MethodPost},
		{name: "get override on post ignored", method: http.MethodPost, target: "/listings/1?_method=GET", want: http.MethodPost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := MethodOverride(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Method
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.target, nil))
			if got != tc.want {
				t.Errorf("method = %q, want %q", got, tc.want)
			}
		})
	}
}
