// Package normalize maps raw department rows into the canonical
// transaction schema.
//
// Each department exports the same data under different headers, date
// formats, amount notations, and category spellings. The normalizer
// resolves headers through the configured alias tables, parses dates
// against a fixed list of accepted layouts, strips currency symbols
// and separators from amounts, folds type synonyms (rev, income,
// cost, spend, ...) into Revenue/Expense, and maps department-local
// category labels into the controlled vocabulary. Labels that cannot
// be mapped degrade to the Uncategorized sentinel; only structurally
// unparseable values (dates, types, amounts) fail, as CoercionErrors
// the consolidator turns into dropped-row records.
package normalize
