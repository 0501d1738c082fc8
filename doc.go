// Package brokerimport ingests transaction exports from brokerage platforms
// and normalizes them into a single canonical transaction ledger, ready for
// downstream tax-lot computation.
//
// The core functionalities include:
//   - Canonical Transaction Model: a single record type and action taxonomy
//     that every broker export converts into, with validation of its
//     structural invariants.
//   - Award Price Resolution: vesting transactions are often exported with a
//     missing price; it is backfilled from a separate awards export, with an
//     approximate-date lookup tolerating the few days of drift brokers
//     introduce around weekends and holidays.
//   - Corporate Action Unification: multi-row encodings of a single corporate
//     action (e.g. a cash merger split into a cash row and an adjustment row)
//     are folded into one well-formed transaction.
//   - Multi-Source Reconciliation: overlapping exports describing the same
//     real-world events (a general transaction export and a more precise
//     equity-award export) are deduplicated and merged into one
//     chronologically ordered ledger.
//
// This package serves as the foundational logic for the `bim` command-line
// tool. The tax computation itself, as well as report rendering, are
// downstream consumers and not part of this package.
package brokerimport
