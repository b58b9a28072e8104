// Package reqctx carries request-scoped values through context.Context.
//
// Setting values (in middleware):
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: rid})
//	ctx = reqctx.WithSession(ctx, &reqctx.Session{UserID: uid, Role: "club"})
//
// Getting values (in handlers and services):
//
//	if s, ok := reqctx.SessionFromContext(ctx); ok {
//	    _ = s.UserID
//	}
//
// RequestMeta is set for every HTTP request. A Session is set only when the
// request carried a valid access token for a live session.
package reqctx
