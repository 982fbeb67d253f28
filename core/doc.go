// Package core contains the domain model for book circulation in a public library.
//
// The central aggregate is the Loan: a time-bounded lending relationship between
// one user and one book, with an immutable identity and a monotonic status
// (ACTIVE -> RETURNED, never reversed). Loans are created only by a successful
// open operation and mutated exactly once, by a successful close operation.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
