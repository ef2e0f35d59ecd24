// Package consolidate runs the monthly close pipeline: the four
// department CSV exports are parsed, normalized into the canonical
// schema, validated, merged, and published as one immutable dataset.
//
// # Processing order
//
// Submissions are always processed in the fixed order Sales, Marketing,
// Operations, Finance. The order is part of the merge contract: when
// the same transaction id appears in more than one submission, the
// occurrence from the later-processed department replaces the earlier
// one.
//
// # Row policy
//
// Rows fall into three buckets during a run:
//
//	kept     - pass all validation rules, enter the dataset
//	tagged   - carry soft issues (out-of-range date, unmappable
//	           category) but are kept and reported
//	dropped  - fail a fatal rule (missing id, unknown department or
//	           type, zero/negative amount, excess precision, coercion
//	           failure) and are excluded, with the reason recorded
//
// An unreadable submission fails that department only; the run
// proceeds with the rest and the report names the missing file. A run
// fails outright only when no submission can be read at all.
//
// # Publication
//
// A finished dataset is written to the master CSV via temp-file-and-
// rename, then swapped into the Store with a single pointer store.
// Readers always observe either the previous complete snapshot or the
// new one. A failed run leaves both the file and the in-memory
// snapshot untouched and marks the status stale.
package consolidate
