// Package observability provides structured JSON logging and Prometheus
// metrics for the authorization service.
package observability
