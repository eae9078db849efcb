package client

import "fmt"

// HTTPStatusError is returned when the history server answers with a
// non-2xx status.  Connection and timeout errors are not wrapped in it;
// they propagate unmodified from the http client.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("received status code that's not 200: %d, url: %s, body: %s", e.StatusCode, e.URL, e.Body)
}

// ValidationError is returned when a response does not match the
// expected record shape.
type ValidationError struct {
	Field string
	URL   string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("response from %s has invalid field %q: %v", e.URL, e.Field, e.Err)
	}
	return fmt.Sprintf("response from %s could not be decoded: %v", e.URL, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError is returned for logically absent resources, such as a
// stage ID with no attempts.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}
