// Package service contains the application services that orchestrate the
// store and the cache.
//
// The TaskService is the core of the system: it owns the cache-aside read
// path and the write-then-invalidate ordering that keeps cached task state
// inside its correctness window relative to the store. The auth subpackage
// provides JWT issuance/validation and password hashing for the API layer.
//
// Error handling principles:
//  1. Expected conditions (not found, validation failures) surface as the
//     sentinel errors defined in internal/store and internal/domain
//  2. Unexpected errors are wrapped in ServiceError with the operation name
//  3. Callers use errors.Is/errors.As to check for specific conditions
//  4. The API layer maps these errors to HTTP status codes
package service
