// Package api contains the HTTP handlers, request/response models, and
// error mapping for the service's REST surface. Handlers translate between
// HTTP and the service layer; business rules live below, in the services
// and the domain.
package api
