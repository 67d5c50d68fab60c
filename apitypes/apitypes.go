// Package apitypes holds the JSON documents exchanged with a VIIPER server.
package apitypes

import "fmt"

// ApiError is a problem+json style error document.
type ApiError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	switch {
	case e.Status == 0 && e.Title == "":
		return "unknown error"
	case e.Status == 0:
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// NotFound builds a 404 problem.
func NotFound(detail string) ApiError {
	return ApiError{Status: 404, Title: "Not Found", Detail: detail}
}

// Conflict builds a 409 problem.
func Conflict(detail string) ApiError {
	return ApiError{Status: 409, Title: "Conflict", Detail: detail}
}

// Unauthorized builds a 401 problem.
func Unauthorized(detail string) ApiError {
	return ApiError{Status: 401, Title: "Unauthorized", Detail: detail}
}

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

type BusListResponse struct {
	Buses []uint32 `json:"buses"`
}

type BusCreateResponse struct {
	BusID uint32 `json:"busId"`
}

type BusRemoveResponse struct {
	BusID uint32 `json:"busId"`
}

// Device is a device attached to a virtual bus.
type Device struct {
	BusID uint32 `json:"busId"`
	DevId string `json:"devId"`
	Vid   string `json:"vid"`
	Pid   string `json:"pid"`
	Type  string `json:"type"`
}

type DevicesListResponse struct {
	Devices []Device `json:"devices"`
}

type DeviceRemoveResponse struct {
	BusID uint32 `json:"busId"`
	DevId string `json:"devId"`
}

// DeviceCreateRequest asks for a new device. VID and PID default to the
// server's values for Type when omitted.
type DeviceCreateRequest struct {
	Type      *string `json:"type"`
	IdVendor  *uint16 `json:"idVendor,omitempty"`
	IdProduct *uint16 `json:"idProduct,omitempty"`
}
