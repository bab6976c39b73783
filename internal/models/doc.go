// Package models defines the persisted documents shared by the Paymi
// backend services.
//
// # Collections
//
//   - User: registered account (identity service, "users")
//   - Contact: address-book entry (ledger service, "contacts")
//   - Debt: aggregate running totals per contact (ledger service, "debts")
//   - UserDebt: one record per (creditor, debtor, split event)
//     (ledger service, "user_debts")
//   - Receipt: parsed receipt persisted after model extraction
//     (receipt service, "receipts")
//
// # Two ledger models
//
// Debt and UserDebt deliberately coexist. Debt keeps the four-counter
// aggregate per contact (fed by AddDebt). UserDebt is the canonical
// individualized model: every confirmed split creates fresh records that
// are only ever paid down, never merged, so each split stays independently
// auditable. Payment recording operates on UserDebt records, oldest first.
//
// # Design notes
//
// IDs are UUID strings generated by the storage layer when absent and stored
// as the Mongo _id. Password hashes are never serialized to JSON.
package models
