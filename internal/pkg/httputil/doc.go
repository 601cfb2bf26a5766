// Package httputil provides small helpers for writing consistent JSON
// responses from the dashboard API handlers.
package httputil
