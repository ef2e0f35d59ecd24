// Package http contains the HTTP handlers of the dashboard API.
//
// Three handler groups are mounted under /api:
//
//	DashboardHandler  - /summary, /transactions, /aggregates/* read
//	                    views over the current dataset snapshot
//	OperationsHandler - POST /consolidate triggers a synchronous run
//	DataHandler       - /download/{csv,xlsx} dataset exports
//
// All read endpoints accept the same filter query parameters
// (department, from, to, category, q), so the table and every
// aggregate always reconcile for a given filter. Errors are rendered
// as RFC 7807 problem documents by the shared error handler.
package http
