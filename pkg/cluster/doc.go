/*
Package cluster implements the membership and placement layer: a
SWIM-style membership state machine with incarnation-based
refutation, a consistent hash ring for key placement, and seed-list
discovery.
*/
package cluster
