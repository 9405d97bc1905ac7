package apiclient

import "fmt"

// Typed wrappers over Client.get/post/put so each resource method stays a
// one-liner.

// getResource performs a GET request and decodes the response body into a
// value of type T.
//
// Example:
//
//	detail, err := getResource[VersionDetail](c, "/api/v1/updates/manager/version/fetch/"+id)
func getResource[T any](c *Client, path string) (*T, error) {
	var result T
	if err := c.get(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// createResource performs a POST request with the provided body and decodes
// the response into a value of type T.
//
// Example:
//
//	resp, err := createResource[CreateVersionResponse](c, "/api/v1/updates/manager/version/create", req)
func createResource[T any](c *Client, path string, body any) (*T, error) {
	var result T
	if err := c.post(path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// updateResource performs a PUT request with the provided body and decodes
// the response into a value of type T.
//
// Example:
//
//	resp, err := updateResource[ProcessVersionResponse](c, "/api/v1/updates/manager/version/process", req)
func updateResource[T any](c *Client, path string, body any) (*T, error) {
	var result T
	if err := c.put(path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// resourcePath builds a resource path from a format string.
func resourcePath(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
