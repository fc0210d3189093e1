package collab

import "context"

// Actor authenticated staff member behind a request
type Actor struct {
	ID       string
	Role     string
	OutletID string
}

type actorKey struct{}

// WithActor stores the actor on ctx. Set by the auth middleware.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored on ctx
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
