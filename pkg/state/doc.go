/*
Package state implements task state storage for rollwatch.

Two variants satisfy the Store interface:

  - InMemoryStore: a bounded map with TTL eviction, meant for
    single-replica deployments where losing history on restart is
    acceptable. Capacity is fixed at 100 tasks; retention is HISTORY_TTL.
    Eviction is applied lazily on every access.

  - PostgresStore: a pooled sqlx connection to a tasks table, for
    deployments that need durable history or run multiple replicas. It
    never evicts; retention is an external policy.

Both variants answer status queries for unknown or expired ids with the
literal "task not found" sentinel rather than an error, because that
sentinel is part of the API contract consumed by CI pipelines.

The watcher is the only writer of status transitions; the API reads
concurrently. Implementations are responsible for their own internal
synchronisation.
*/
package state
