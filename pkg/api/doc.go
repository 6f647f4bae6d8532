/*
Package api implements the rollwatch HTTP ingress.

The ingress accepts rollout-verification tasks, assigns each a UUID, and
hands it to the watcher for background verification; the submission
response carries only the id and "accepted". Status and history queries
read the state store directly and never touch the watcher.

Route surface:

	POST /api/v1/tasks       submit a task, 202 {status, id}
	GET  /api/v1/tasks/{id}  current status, 200 {status}
	GET  /api/v1/tasks       history filtered by from/to timestamp and app
	GET  /api/v1/apps        distinct app names
	GET  /api/v1/version     build version
	GET  /healthz            ArgoCD + store reachability
	GET  /metrics            Prometheus metrics

Malformed submissions fail schema validation with 422. A ./static
directory, when present, is served so the binary can host the web UI.
*/
package api
