// Package api is the HTTP surface of the relay. POST /alert runs the full
// pipeline (transform → resolve channel → deliver); the remaining routes are
// diagnostics: /testalert (dry-run transform), /health, /config (redacted),
// /metrics, /echo, /stdout, and a plain-text route listing at /.
package api
