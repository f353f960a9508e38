package background

import "context"

type taskIDKey struct{}

// ContextWithTaskID labels a context with the task it belongs to. The
// scheduler applies it to every handler context so downstream code can
// attribute output to the right task.
func ContextWithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

// TaskIDFromContext returns the owning task id, or "" outside a task.
func TaskIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(taskIDKey{}).(string)
	return id
}
