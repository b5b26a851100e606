/*
Package mgmt implements the ClaudeFS management plane: capacity
planning, the snapshot/restore catalog, the compliance retention
registry, the cost tracker and alert engine, cluster metrics, and
multi-tenant isolation.

Durable entities (snapshots, restore jobs, compliance records, cost
entries, tenant configs) persist through Catalog, a BoltDB-backed
bucket-per-entity store. Ephemeral, high-churn state (the capacity
planner's ring buffer, cluster metrics counters) stays in memory,
matching the single-owner discipline the rest of the FUSE-side
registries use.
*/
package mgmt
