package router

import "net/http"

// Request is the part of a host request the router reads.
// Path must not include the query string.
type Request interface {
	Method() string
	Path() string
}

// HTTPRequest adapts *http.Request to Request.
type HTTPRequest struct {
	req *http.Request
}

// FromHTTP wraps an *http.Request.
func FromHTTP(r *http.Request) HTTPRequest {
	return HTTPRequest{req: r}
}

// Method returns the request method.
func (r HTTPRequest) Method() string { return r.req.Method }

// Path returns the URL path without the query string.
func (r HTTPRequest) Path() string { return r.req.URL.Path }
