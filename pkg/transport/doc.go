/*
Package transport implements the connection-layer mechanisms of the
cluster data plane: a fixed 24-byte binary frame codec, TCP-style
congestion control, a circuit breaker, token-bucket rate limiting,
adaptive load shedding, a per-connection DoS policy, zero-copy
registered buffer pools, and graceful connection draining.

DosPolicy bounds frame rate, concurrent connections, and payload burst
per connection; its Enforce method records a violation as a circuit
breaker failure (and a conforming frame as a success), and on every
call passes the policy's active connection count to the load shedder's
ConnCount signal. A violation by itself does not change the shed
fraction.

Every type here is deliberately decoupled from any concrete socket
implementation — it operates on byte slices and in-memory state only,
so it can be exercised without a network.
*/
package transport
