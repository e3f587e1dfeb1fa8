// Package server provides HTTP routing, middleware, and the JSON handlers of the recipe API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [ChiRouter] implementation wraps a chi mux. Trailing slashes are stripped before routing, so
// /api/recipes/ and /api/recipes reach the same handler.
//
// # Authentication
//
// [TokenAuth] resolves "Authorization: Token <key>" headers to a user stored in the request context.
// Requests without the header continue anonymously; an unknown key is rejected with 401.
// Read endpoints are public and writes require a user. Login attempts are throttled per email by [LoginLimiter].
//
// # Errors
//
// Handlers return domain errors and let writeError pick the status and body:
//   - validation failures become {"field": ["message"]}
//   - relation conflicts such as a duplicate favorite become {"errors": "message"}
//   - everything else becomes {"detail": "message"}
//
// # Pagination
//
// List endpoints accept ?page= and ?limit= and respond with a [Page] carrying absolute next and previous links.
// Pages past the end are reported as 404.
//
// # Handler Interface
//
// Resource handlers implement the [Handler] interface and return their [Route] table,
// which keeps each resource's route definitions next to its implementation.
package server
