/*
Package log provides structured logging for rollwatch using zerolog.

The package wraps zerolog behind a small surface: a global logger
initialized once via Init, component child loggers via WithComponent, and
task/app context helpers used by the verification loop. JSON output is the
production default; console output is available for local development.

LOG_LEVEL values from the environment are parsed with ParseLevel, which
also accepts the upper-case spellings (INFO, WARNING, ...) used by earlier
deployments of this service.
*/
package log
