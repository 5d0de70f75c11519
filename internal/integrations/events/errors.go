package events

import "errors"

var (
	ErrEncode  = errors.New("events: failed to encode event")
	ErrPublish = errors.New("events: failed to publish event")
)
