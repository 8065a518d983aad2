package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-booking-engine/internal/domain/entity"
	"go-booking-engine/pkg/response"
)

type contextKey string

const (
	ActorKey contextKey = "actor"

	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"

	maxActorIDLength = 100
)

// ActorMiddleware identifies the caller from headers set by the upstream
// gateway. Authentication happens before requests reach this service.
type ActorMiddleware struct {
}

func NewActorMiddleware() *ActorMiddleware {
	return &ActorMiddleware{}
}

func (m *ActorMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := strings.TrimSpace(r.Header.Get(ActorIDHeader))
		if actorID == "" {
			response.Unauthorized(w, ActorIDHeader+" header is required")
			return
		}
		if len(actorID) > maxActorIDLength {
			response.BadRequest(w, ActorIDHeader+" header is too long")
			return
		}

		role := entity.ActorRole(strings.ToLower(strings.TrimSpace(r.Header.Get(ActorRoleHeader))))
		switch role {
		case entity.ActorCustomer, entity.ActorProvider:
		case "":
			role = entity.ActorCustomer
		default:
			response.BadRequest(w, ActorRoleHeader+" must be customer or provider")
			return
		}

		ctx := context.WithValue(r.Context(), ActorKey, entity.Actor{ID: actorID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActorFromContext extracts the caller from context
func GetActorFromContext(ctx context.Context) (entity.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(entity.Actor)
	return actor, ok
}

// WithActor returns ctx carrying actor.
func WithActor(ctx context.Context, actor entity.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}
