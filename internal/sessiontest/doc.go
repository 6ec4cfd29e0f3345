// Package sessiontest provides in-process fakes of the identity provider
// and the first-party session backend for tests and local development.
package sessiontest
