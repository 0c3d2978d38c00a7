package models

import "encoding/json"

// ApiResponse is the uniform envelope every endpoint returns.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// deleteResponse forces "data":null into the payload; omitempty would drop
// the key entirely and break the envelope contract for DELETE.
type deleteResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// NullDataResponse builds the success envelope for DELETE.
func NullDataResponse() any {
	return deleteResponse{Success: true, Data: json.RawMessage("null")}
}
