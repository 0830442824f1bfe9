package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"novellens/internal/artifact"
	"novellens/internal/gateway"
)

func TestUserMessage(t *testing.T) {
	_, _, malformed := artifact.Decode(artifact.KindTimeline, []byte(`[]`))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"network", gateway.NewNetworkError("timeline", context.DeadlineExceeded), MsgNetwork},
		{"wrapped network", fmt.Errorf("outer: %w", gateway.NewNetworkError("timeline", errors.New("refused"))), MsgNetwork},
		{"detail wins", gateway.NewServerError("timeline", 404, "novel 7 has no timeline"), "novel 7 has no timeline"},
		{"404", gateway.NewServerError("timeline", 404, ""), MsgNotFound},
		{"401", gateway.NewServerError("timeline", 401, ""), MsgUnauthorized},
		{"403", gateway.NewServerError("timeline", 403, ""), MsgForbidden},
		{"500", gateway.NewServerError("timeline", 500, ""), MsgInternal},
		{"other status", gateway.NewServerError("timeline", 502, ""), MsgRequestFailed},
		{"malformed", malformed, MsgMalformed},
		{"anything else", errors.New("boom"), MsgRequestFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorClass(t *testing.T) {
	_, _, malformed := artifact.Decode(artifact.KindTimeline, []byte(`"x"`))
	tests := map[string]error{
		"network":   gateway.NewNetworkError("graph", errors.New("refused")),
		"server":    gateway.NewServerError("graph", 500, ""),
		"malformed": malformed,
		"other":     ErrInvalidQuery,
	}
	for want, err := range tests {
		if got := errorClass(err); got != want {
			t.Errorf("errorClass(%v) = %q, want %q", err, got, want)
		}
	}
}
