// Package relay implements the core of the echo relay: the protocol
// dispatcher, the HTTP echo handler, the streaming (WebSocket) echo session,
// and the verbosity-tiered logging middleware observing both paths.
//
// # Dispatch
//
// Every inbound request takes exactly one of three branches:
//
//  1. No upgrade negotiation headers: the request is mirrored back as a plain
//     HTTP response (status 200, same version, same headers, same body bytes).
//  2. Upgrade headers present and negotiation succeeds: the 101 handshake
//     response is written synchronously and a Session starts on its own
//     goroutine, echoing each Text/Binary frame with identical opcode and
//     payload until a Close frame, a read/write failure, or the idle deadline.
//  3. Upgrade headers present but negotiation fails: a 400 response is
//     written whose body is the failure description. No session is created.
//
// # Observation
//
// WithHTTPLogging wraps the dispatcher with a LogStrategy chosen at startup.
// The HTTP side is gated by a LogLevel tier; each tier emits a strict
// superset of the tiers below it. The streaming side is an independent
// boolean toggle on the SessionLogger. Neither side buffers or mutates
// payloads, and every line carries the connection's ConnContext fields.
//
// # Identity
//
// A ContextFactory mints one ConnContext per accepted connection, installed
// through http.Server.ConnContext before any handler runs and recovered with
// FromContext. Connection ids increase monotonically for the life of the
// process.
package relay
