package main

import (
	"database/sql"
	"net/http"
)

// loaderMiddleware injects fresh per-request dataloaders into the context so
// handlers enriching many rows with profile data batch their lookups.
func loaderMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(withLoaders(r.Context(), newLoaders(db)))
			next.ServeHTTP(w, r)
		})
	}
}
