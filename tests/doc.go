// Package tests starts databases in docker containers for integration testing.
// All helpers are only built with the integration build tag:
//
//	go test -tags=integration ./...
package tests
