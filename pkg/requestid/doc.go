// Package requestid tags every request with a correlation ID. A valid inbound
// X-Request-ID is reused so the ID can be traced across the gateway, this service and
// the payment provider callbacks; otherwise a time-ordered UUID is generated.
package requestid
