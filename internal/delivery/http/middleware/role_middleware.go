package middleware

import (
	"net/http"

	"go-booking-engine/internal/domain/entity"
	"go-booking-engine/pkg/response"
)

// RequireRole creates a middleware that checks if the actor has any of the required roles
// Actor is read from context (set by ActorMiddleware)
func RequireRole(allowed ...entity.ActorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActorFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Actor information not found")
				return
			}

			for _, role := range allowed {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "You don't have permission to access this resource")
		})
	}
}

// RequireProvider is a convenience middleware for provider-only endpoints
func RequireProvider(next http.Handler) http.Handler {
	return RequireRole(entity.ActorProvider)(next)
}
