package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"progression/pkg/requestcontext"
)

// WithUserGroups adds caller user groups to the request, both as the trusted
// header and in the context, as the caller-groups middleware would.
func WithUserGroups(req *http.Request, groups ...string) *http.Request {
	req.Header.Set("X-User-Groups", strings.Join(groups, ","))
	return req.WithContext(requestcontext.WithUserGroups(req.Context(), groups))
}

// WithIdempotencyKey sets the Idempotency-Key header.
func WithIdempotencyKey(req *http.Request, key string) *http.Request {
	req.Header.Set("Idempotency-Key", key)
	return req
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}

// EventuallyTimeout bounds every eventual-consistency wait in tests.
const EventuallyTimeout = 3 * time.Second

// Eventually polls cond until it holds or EventuallyTimeout elapses.
// Projection writes are asynchronous; tests poll reads instead of sleeping.
func Eventually(t *testing.T, cond func() bool, msgAndArgs ...any) {
	t.Helper()
	require.Eventually(t, cond, EventuallyTimeout, 10*time.Millisecond, msgAndArgs...)
}
