/*
Package argocd wraps the subset of the ArgoCD HTTP API that rollwatch
consumes: session creation, the userinfo health probe, application
refresh, and the application status projection.

The client holds one authenticated session shared by all verification
goroutines. It deliberately performs no retries and no interpretation of
rollout state; both belong to the watcher. TLS verification is on by
default and can be disabled via SSL_VERIFY for self-signed installations.
*/
package argocd
