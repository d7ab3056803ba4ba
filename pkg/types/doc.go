// Package types defines the test-asset entities (projects, modules,
// scenarios, test cases, plans and results), the Repository interface that
// storage backends implement, and the standard errors shared by the store,
// the execution session and the CLI.
package types
