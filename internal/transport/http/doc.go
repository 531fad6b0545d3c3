// Package http implements the HTTP handlers for the WashPulse dashboard
// API. It is a thin layer between chi routing and the service layer,
// keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to RFC 7807 responses
//	4. No business logic - filtering and aggregation belong to services
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Snapshot
//	                                              ↓
//	HTTP Response ← Handler ← Typed View ←───────┘
//
// # Handler Structure
//
// Each handler owns a Routes() chi.Router, a component-tagged logger and
// an error handler. Request parsing failures become validation problems,
// service sentinel errors are mapped onto API errors, and everything else
// falls through to the generic RFC 7807 internal error.
//
// # Endpoints
//
// Auth (open):      POST /api/auth/login, POST /api/auth/logout, GET /api/auth/status
// Dashboard:        GET /api/dashboard/{washes,subscriptions,sales}
// Meta:             GET /api/meta
// Refresh:          POST /api/refresh
// Export:           GET /api/export/{table}.csv, GET /api/export/workbook.xlsx
// Health (open):    GET /api/health, /api/health/ready, /api/health/live, /api/version
//
// Everything outside the open set sits behind the session gate
// middleware.
package http
