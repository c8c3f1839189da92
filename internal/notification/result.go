package notification

import (
	"errors"
	"net/textproto"
	"strings"

	"github.com/wneessen/go-mail"
)

// FailureReason tags the step at which a delivery attempt failed.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonSession
	ReasonConnect
	ReasonAuth
	ReasonMessage
	ReasonDelivery
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSession:
		return "session"
	case ReasonConnect:
		return "connect"
	case ReasonAuth:
		return "auth"
	case ReasonMessage:
		return "message"
	case ReasonDelivery:
		return "delivery"
	}
	return "unknown"
}

// Result is the outcome of one Send call. CloseErr is reported separately
// and never turns a delivered message into a failure.
type Result struct {
	Reason   FailureReason
	Err      error
	CloseErr error
}

// OK reports whether the message was handed to the server.
func (r Result) OK() bool {
	return r.Reason == ReasonNone
}

// Status is the delivery status recorded in the delivery log.
func (r Result) Status() string {
	if r.OK() {
		return "sent"
	}
	return "failed"
}

func failed(reason FailureReason, err error) Result {
	return Result{Reason: reason, Err: err}
}

// SMTP reply codes that mean the server rejected authentication.
var authReplyCodes = map[int]bool{
	530: true,
	534: true,
	535: true,
	538: true,
}

// go-mail reports a server without AUTH as a formatted error with this text.
const noAuthSupportMsg = "does not support SMTP AUTH"

// classifyConnectErr separates authentication problems, whether rejected
// credentials or a server that cannot authenticate, from network failures.
func classifyConnectErr(err error) FailureReason {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && authReplyCodes[tpErr.Code] {
		return ReasonAuth
	}
	if errors.Is(err, mail.ErrPlainAuthNotSupported) || strings.Contains(err.Error(), noAuthSupportMsg) {
		return ReasonAuth
	}
	return ReasonConnect
}
