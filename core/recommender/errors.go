package recommender

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout 调用超过截止时间
	ErrTimeout = errors.New("recommender: deadline exceeded")
	// ErrAborted 调用方取消了请求
	ErrAborted = errors.New("recommender: request aborted")
	// ErrTransport 网络层错误
	ErrTransport = errors.New("recommender: transport error")
	// ErrUnexpectedStatus 非 2xx 响应
	ErrUnexpectedStatus = errors.New("recommender: unexpected status")
	// ErrMalformedResponse 响应体无法解析
	ErrMalformedResponse = errors.New("recommender: malformed response")
	// ErrCircuitOpen 熔断器打开，未发出请求
	ErrCircuitOpen = errors.New("recommender: circuit open")
)

// Outcome labels used in logs and metrics.
const (
	OutcomeOK           = "ok"
	OutcomeEmpty        = "empty"
	OutcomeTimeout      = "timeout"
	OutcomeAborted      = "aborted"
	OutcomeTransport    = "transport_error"
	OutcomeBadStatus    = "bad_status"
	OutcomeMalformed    = "malformed"
	OutcomeCircuitOpen  = "circuit_open"
	OutcomeUnclassified = "error"
)

// StatusError carries the status code of a non-success response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recommender: unexpected status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// OutcomeOf classifies the result of a Recommend call.
func OutcomeOf(resp *Response, err error) string {
	switch {
	case err == nil:
		if resp == nil || len(resp.Recommendations) == 0 {
			return OutcomeEmpty
		}
		return OutcomeOK
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrAborted):
		return OutcomeAborted
	case errors.Is(err, ErrCircuitOpen):
		return OutcomeCircuitOpen
	case errors.Is(err, ErrUnexpectedStatus):
		return OutcomeBadStatus
	case errors.Is(err, ErrMalformedResponse):
		return OutcomeMalformed
	case errors.Is(err, ErrTransport):
		return OutcomeTransport
	default:
		return OutcomeUnclassified
	}
}
