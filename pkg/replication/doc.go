/*
Package replication implements the cross-site replication layer:
per-(site, shard) WAL cursors, active-active conflict resolution via
logical clocks, rolling checkpoints of cursor state, UID/GID
translation between sites, and an audit log.
*/
package replication
