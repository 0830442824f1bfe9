package analysis

import (
	"errors"
	"net/http"

	"novellens/internal/artifact"
	"novellens/internal/gateway"
)

// User-facing messages for fetch failures.
const (
	MsgNetwork       = "network unreachable, please check your connection"
	MsgNotFound      = "resource not found"
	MsgUnauthorized  = "unauthorized"
	MsgForbidden     = "forbidden"
	MsgInternal      = "internal server error"
	MsgRequestFailed = "request failed"
	MsgMalformed     = "unexpected data format"
)

var statusMessages = map[int]string{
	http.StatusNotFound:            MsgNotFound,
	http.StatusUnauthorized:        MsgUnauthorized,
	http.StatusForbidden:           MsgForbidden,
	http.StatusInternalServerError: MsgInternal,
}

// UserMessage resolves err to the message shown to the user. A server error
// uses the backend's detail when it sent one, then a message for the status
// code, then the generic request-failed message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var srvErr *gateway.ServerError
	switch {
	case gateway.IsNetwork(err):
		return MsgNetwork
	case errors.As(err, &srvErr):
		if srvErr.Detail() != "" {
			return srvErr.Detail()
		}
		if msg, ok := statusMessages[srvErr.StatusCode()]; ok {
			return msg
		}
		return MsgRequestFailed
	case artifact.IsMalformed(err):
		return MsgMalformed
	}
	return MsgRequestFailed
}

// errorClass labels err for metrics and spans.
func errorClass(err error) string {
	switch {
	case gateway.IsNetwork(err):
		return "network"
	case artifact.IsMalformed(err):
		return "malformed"
	}
	var srvErr *gateway.ServerError
	if errors.As(err, &srvErr) {
		return "server"
	}
	return "other"
}
