// Package services implements the business logic layer between the HTTP
// handlers and the fact store. It owns the dashboard pipeline: snapshot
// acquisition and caching, per-request filtering and aggregation,
// consistency checking, and the typed views the transport layer
// serializes.
//
// Services follow a common shape: a struct with injected dependencies,
// a constructor that guards nil loggers, and context-aware methods.
// Views come back fully ordered; handlers serialize them as-is and
// never re-sort.
package services
