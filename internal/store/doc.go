// Package store is the single source of truth for one project's test
// assets: the Module → Scenario → TestCase hierarchy, test plans and
// execution results. Every mutation runs to completion under a mutex and
// then persists the whole project state through a types.Repository.
//
// Operations that address a missing entity are no-ops: they return
// changed=false and a nil error. Validation errors are returned before any
// state changes. When the write to the repository fails the in-memory state
// keeps the mutation and the caller gets a *types.PersistError; Flush
// retries the write.
package store
