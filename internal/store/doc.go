// Package store connects to the car-wash fact warehouse and loads the three
// record sets behind the dashboards: daily wash counts, daily subscription
// counters and daily sales/expense figures.
//
// # Connection Strategies
//
// The warehouse is reached through an ordered list of connection strategies
// (MySQL, Postgres, local SQLite snapshot). Connect tries each strategy in
// the configured order and keeps the first one that answers a ping. Every
// failed attempt is recorded; when all strategies are exhausted the caller
// receives a single *UnavailableError carrying the per-strategy results.
// A strategy without a configured DSN or path fails its attempt with
// ErrNotConfigured like any other failure, so the attempt trail is complete.
// There are no built-in fallback credentials.
//
// # Loading
//
// Loader pulls each dataset with a plain read-only query, parses the 8 digit
// date_key values into calendar dates, computes the derived columns and drops
// rows whose key does not name a real date (the drop count is reported, not
// hidden). LoadSnapshot assembles all three datasets into a domain.Snapshot;
// a dataset that cannot be loaded is recorded as a LoadIssue and replaced by
// an empty set so the pipeline degrades instead of failing.
//
// The sales fact table has grown columns over time. The loader reads it by
// inspecting the columns the store actually returned, so older snapshots
// without the club tier revenue columns still load; the resulting
// domain.SalesSchema tells the aggregation layer which optional column
// groups were present.
package store
