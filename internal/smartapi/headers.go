package smartapi

import "net/http"

// baseHeaders builds the fixed header set required by every SmartAPI call:
// JSON content negotiation plus the source and device identification headers
// and the API key. Pure function of client configuration.
func (c *Client) baseHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("X-UserType", "USER")
	h.Set("X-SourceID", "WEB")
	h.Set("X-ClientLocalIP", c.localIP)
	h.Set("X-ClientPublicIP", c.publicIP)
	h.Set("X-MACAddress", c.macAddress)
	h.Set("X-PrivateKey", c.apiKey)
	return h
}

// authHeaders extends the base set with the bearer token and the account
// code header when the session carries them.
func (c *Client) authHeaders(snap sessionSnapshot) http.Header {
	h := c.baseHeaders()
	if snap.accessToken != "" {
		h.Set("Authorization", "Bearer "+snap.accessToken)
	}
	if snap.clientCode != "" {
		h.Set("X-ClientCode", snap.clientCode)
	}
	return h
}
