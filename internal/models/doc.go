// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - Participant: a person who can owe or be owed money
//   - Group: a named set of participants sharing one balance ledger
//   - Expense: an amount paid by one participant, optionally inside a group
//   - Split: one participant's owed share of one expense
//   - Settlement: a recorded payment between two group members
//
// # Design Principles
//
//  1. **Ids, not pointers**: groups reference participants by id, expenses
//     reference payer and group by id. There are no back-references.
//  2. **Derived state stays out**: the pairwise balance matrix of a group is not
//     part of Group; it is rebuilt from expenses, splits and settlements by the
//     ledger package.
//  3. **Decimal money**: all amounts use decimal.Decimal, formatting happens in
//     the presentation layer only.
package models
