// Package identity carries the authenticated caller through a request.
//
// The bearer middleware verifies the token, resolves its subject to a user id
// and stores the result in the request context:
//
//	id := identity.FromClaims(claims, userID).
//	    WithRequestID(requestID).
//	    WithRemoteIP(identity.ParseRemoteAddr(r.RemoteAddr))
//	ctx = identity.Set(ctx, id)
//
// Handlers read it back with Get. The user id always comes from the
// credential store, never from the token itself.
package identity
