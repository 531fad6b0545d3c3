package http

import (
	_ "embed"
	"net/http"
)

//go:embed login.html
var loginPage []byte

// ServeLoginPage serves the embedded sign-in page. The page itself stays
// outside the gate so a logged-out browser can always reach it.
func ServeLoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.WriteHeader(http.StatusOK)
		w.Write(loginPage)
	}
}

// RedirectToLogin sends browsers hitting the root path to the sign-in page.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}
