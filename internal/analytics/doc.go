// Package analytics turns loaded record sets into the ordered tables behind
// the dashboards. Every operation here is a pure function: records in, table
// out, no store access and no shared state between calls.
//
// # Pipeline Position
//
// A dashboard request runs filter, then the aggregations it needs, then the
// consistency checks. The filter stage keeps records inside an inclusive
// calendar-date range and an optional site subset; every aggregation accepts
// an empty input and returns an empty table, so a dataset that failed to load
// upstream flows through as "no data" rather than a fault.
//
// # Table Contract
//
// Aggregations return rows sorted in their documented display order (dates
// ascending, months by raw YYYY-MM key, category tables by their stated rank
// column). Consumers render tables as-is; nothing downstream re-sorts.
// Summed reductions are associative and commutative, so input order never
// changes a result. Guarded divisions return zero instead of faulting:
// rewash percentage with a zero wash count, churn with no prior active base,
// conversion with no trials.
//
// # Club Revenue Fallback
//
// The sales schema may lack the per-tier club revenue columns. SplitPrograms
// and the program revenue trends then estimate club revenue as the blended
// club-and-PPW sales column minus PPW revenue and mark the result Estimated.
// The flag travels with the table; an estimate is never presented as exact.
package analytics
