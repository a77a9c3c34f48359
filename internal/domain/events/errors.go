package events

import "errors"

var ErrEventTypeInvalid = errors.New("unknown notification event type")
