/*
Package fuseside implements the client-side subsystems that sit
between a mounted filesystem and the cluster: the enrollment
certificate state machine and CRL, a tick-driven rotation scheduler
layered on top of it, a bounded data cache, the fsync barrier manager
and journal, the hot-path I/O router, the WORM compliance registry,
the cache coherence manager, and the security policy enforcer.
*/
package fuseside
