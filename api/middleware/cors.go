package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware that admits the storefront origin plus local dev.
func CORS(clientURL string) func(http.Handler) http.Handler {
	origins := []string{"http://localhost:3000"}
	if clientURL != "" && clientURL != origins[0] {
		origins = append(origins, clientURL)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
