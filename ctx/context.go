// Package ctx holds the key type for values stored in a context.Context.
//
// It is a separate package, so that low level packages like alog can use
// the keys without importing the root package.
package ctx

// CTXKey is the type used by all keys put in a context.
// As recommended by the package context, productstore uses its own data type for keys in the use of WithValue.
type CTXKey string

const (
	// CtxRequestID is set by the HTTP layer for every incoming request.
	CtxRequestID CTXKey = "productstore.request_id"
)
