package dto

// ConnectionRequest is the request body for creating or updating a
// connection. Credential fields are accepted here and never echoed back.
type ConnectionRequest struct {
	Name           string `json:"name" binding:"required,min=1,max=100"`
	StoreURL       string `json:"store_url" binding:"required,max=255"`
	ConsumerKey    string `json:"consumer_key" binding:"required"`
	ConsumerSecret string `json:"consumer_secret" binding:"required"`
	WPUsername     string `json:"wp_username,omitempty"`
	WPAppPassword  string `json:"wp_app_password,omitempty"`
	UploadStrategy string `json:"upload_strategy,omitempty"`
	SyncDirection  string `json:"sync_direction,omitempty"`
	ConflictPolicy string `json:"conflict_policy,omitempty"`
	APIVersion     string `json:"api_version,omitempty"`
	Active         bool   `json:"active"`
}

// ConnectionResponse is the public view of a connection. It deliberately
// carries no credential fields.
type ConnectionResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	StoreURL       string  `json:"store_url"`
	UploadStrategy string  `json:"upload_strategy"`
	SyncDirection  string  `json:"sync_direction"`
	ConflictPolicy string  `json:"conflict_policy"`
	APIVersion     string  `json:"api_version"`
	Active         bool    `json:"active"`
	Status         string  `json:"status"`
	LastError      *string `json:"last_error,omitempty"`
	LastSyncAt     *string `json:"last_sync_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// TestConnectionResponse reports the outcome of a connectivity probe.
type TestConnectionResponse struct {
	Status       string `json:"status"`
	ProductCount int    `json:"product_count"`
}

// EndpointRequest is the request body for provisioning a webhook endpoint.
type EndpointRequest struct {
	Name               string `json:"name" binding:"required,min=1,max=100"`
	Secret             string `json:"secret,omitempty"`
	Topic              string `json:"topic,omitempty"`
	Active             bool   `json:"active"`
	AutoCreateOrder    bool   `json:"auto_create_order"`
	AutoCreateCustomer bool   `json:"auto_create_customer"`
	OrderPrefix        string `json:"order_prefix,omitempty"`
}

// EndpointResponse is the public view of a webhook endpoint. The signing
// secret is never echoed back; the token is, since it forms the post URL.
type EndpointResponse struct {
	ID                 string `json:"id"`
	ConnectionID       string `json:"connection_id"`
	Name               string `json:"name"`
	Token              string `json:"token"`
	Topic              string `json:"topic"`
	Active             bool   `json:"active"`
	AutoCreateOrder    bool   `json:"auto_create_order"`
	AutoCreateCustomer bool   `json:"auto_create_customer"`
	OrderPrefix        string `json:"order_prefix"`
	CreatedAt          string `json:"created_at"`
}

// SyncReportResponse summarizes one pull or push pass.
type SyncReportResponse struct {
	Created int  `json:"created"`
	Updated int  `json:"updated"`
	Skipped int  `json:"skipped"`
	Failed  int  `json:"failed"`
	Halted  bool `json:"halted"`
}

// DeliveryAck is the response body returned to the remote store after a
// webhook delivery reached a terminal outcome.
type DeliveryAck struct {
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

// WebhookLogResponse is one row of an endpoint's delivery history.
type WebhookLogResponse struct {
	ID         string  `json:"id"`
	EndpointID string  `json:"endpoint_id"`
	ReceivedAt string  `json:"received_at"`
	Outcome    string  `json:"outcome"`
	OrderID    *string `json:"order_id,omitempty"`
	Message    string  `json:"message"`
}
