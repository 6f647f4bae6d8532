/*
Package config resolves rollwatch settings from the environment.

Settings are read once at startup through viper, validated, and passed by
reference into the components that need them. ARGO_URL, ARGO_USER and
ARGO_PASSWORD are always required; the DB_* settings are required only
when STATE_TYPE=postgres. Any other STATE_TYPE value aborts startup.
*/
package config
