// Package web holds small HTTP plumbing shared by the HTML routes.
package web

import "net/http"

// methodOverrideParam is the query or form parameter browsers use to tunnel
// PUT and DELETE through an HTML form's POST.
const methodOverrideParam = "_method"

// MethodOverride rewrites a POST whose _method parameter names PUT or DELETE
// before routing happens, so HTML forms can drive the full route table. Only
// POST is eligible and only those two verbs are honored; anything else is
// ignored, so the override cannot downgrade a request to GET.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			switch r.URL.Query().Get(methodOverrideParam) {
			case http.MethodPut:
				r.Method = http.MethodPut
			case http.MethodDelete:
				r.Method = http.MethodDelete
			}
		}
		next.ServeHTTP(w, r)
	})
}
