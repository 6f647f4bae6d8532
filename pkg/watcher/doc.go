/*
Package watcher implements the rollout verification engine.

One goroutine per accepted task polls ArgoCD on a fixed cadence until a
terminal condition holds:

  - every expected image reference appears in the application summary AND
    the app reports Synced and Healthy -> "deployed"
  - the application refresh returns 404 -> "app not found"
  - the deadline (ARGO_TIMEOUT) expires first -> "failed"

Transport errors and not-ready states are retried within the deadline;
they are signals to keep polling, not failures. The watcher owns all
status transitions after submission, and increments or resets the
failed_deployment gauge on "failed" and "deployed" respectively.
*/
package watcher
