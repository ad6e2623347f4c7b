// Package auth implements the client-side session core for the running
// app: one authenticated/unauthenticated state machine over two mutually
// exclusive identity backends.
//
// Backends:
//   - The local backend exchanges username/password for an opaque bearer
//     token and validates stored tokens remotely against the service's
//     "who am I" endpoint.
//   - The hosted backend sends users to a provider-operated login page and
//     redeems the authorization code the provider redirects back with. The
//     resulting identity token is decoded locally; by default its signature
//     is not verified (configure a JWKS URL to opt into verification).
//
// Session lifecycle:
//   - SessionController owns all session state. It hydrates from a
//     TokenStore on startup, persists credentials on login or code
//     redemption, keeps the HTTPClient's bearer attachment in lockstep
//     with the store, and tears everything down together on logout or
//     failed validation.
//   - CodeRedeemer consumes a redirect-return authorization code exactly
//     once per instance, guarding against double-invoked initialization.
//   - RouteGuard derives an allow/wait/redirect decision from a session
//     snapshot; middleware/sessionware adapts it to Fiber.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter fed by the controller
//     and the redeemer (login outcomes, logout, hydration, redemption).
//     Errors are logged, never surfaced.
package auth
