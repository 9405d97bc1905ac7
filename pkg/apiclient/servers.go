package apiclient

// ServersListResponse is ListServers' response body.
type ServersListResponse struct {
	Servers []string `json:"servers"`
}

// ListServers returns the mirror server URLs a client may download from.
func (c *Client) ListServers() (*ServersListResponse, error) {
	return getResource[ServersListResponse](c, "/api/v1/updates/servers/list")
}
