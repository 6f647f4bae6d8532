/*
Package metrics exposes Prometheus metrics for rollwatch.

Metrics are declared as package-level collectors and registered once in
init. The service exposes them on /metrics via Handler.

The externally consumed metric is failed_deployment{app_name=...}: CI
dashboards alert on it. It is set to 0 whenever an application reaches the
expected version and incremented whenever a verification task times out,
so a non-zero value means the latest observed rollout for that app failed.
The remaining collectors cover API traffic and the verification loop
itself.
*/
package metrics
