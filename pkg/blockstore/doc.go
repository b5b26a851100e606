/*
Package blockstore implements the storage engine's data plane:
fixed-layout block headers with checksum integrity, a per-device
superblock, copy-on-write snapshots with reference counting, and an S3
tiering engine that moves aged segments between local flash and object
storage.

The tiering engine carries a LifecyclePolicy (age-based transition and
expiry, applied by EvictTick) and a BucketPolicy (allow/deny glob
patterns over the principal making a put or get), both optional and
consulted only when set.

Every on-disk structure in this package uses a bit-exact little-endian
layout so that two independent implementations reading the same bytes
agree on their meaning.
*/
package blockstore
