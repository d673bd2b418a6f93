// Package aassert has assertions that go beyond what stretchr/testify/assert offers.
// The functions follow the design of testify: they report via t, return if the assertion
// passed, and accept optional msgAndArgs.
package aassert
