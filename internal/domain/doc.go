// Package domain models municipal service complaints and the pure transforms
// that prepare them for training.
//
// # Data Source
//
// Complaints are exported by the municipality's case-management system into a
// flat table (see the sqlite adapter) or published as JSON on the ingest topic.
// Field types are loose: temperatures and dates may arrive as strings, numbers,
// or null. Locality is stored under the "settlement" key.
//
// # Cleaning
//
// [Clean] keeps a row only when all three required fields parse:
//
//	openDate     one of the layouts in openDateLayouts, or a Unix timestamp
//	             (seconds, or milliseconds when larger than 1e11)
//	settlement   non-empty after whitespace normalization
//	temperature  finite decimal, "12,5" accepted as 12.5
//
// Anything else is counted under a [RejectReason] and dropped. Rows are never
// defaulted.
//
// # Calendar Conventions
//
// DayOfWeek uses ISO order starting at zero: Monday=0 ... Sunday=6.
// The weekend is Friday (4) and Saturday (5), matching the Israeli work week
// of the source data. DayOfYear is 1-based. Dates are proleptic Gregorian,
// held as midnight UTC.
//
// # Daily Aggregation
//
// [AggregateDaily] produces one [DailyAggregate] per (date, locality) pair
// with the complaint count and mean temperature of the contributing records.
package domain
