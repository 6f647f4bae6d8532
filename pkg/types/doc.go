/*
Package types defines the core data structures used throughout rollwatch.

This package contains the domain model for rollout verification: tasks,
the images a task expects to see rolled out, and the status values a task
moves through. All other packages depend on these types for state
management, API payloads, and the verification loop.

# Task Lifecycle

	         submit
	(start) ───────▶ in progress ──┬─▶ deployed      (terminal)
	                               ├─▶ failed        (terminal)
	                               └─▶ app not found (terminal)

A task enters the store as "in progress" and ends in exactly one terminal
status. "task not found" is a query sentinel for unknown or expired ids
and is never stored. "accepted" only appears in the submission response.

All types serialize to JSON. Timestamps are float seconds since epoch on
the wire; storage backends convert as needed but never change the unit.
*/
package types
