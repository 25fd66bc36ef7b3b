package service

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEventType is returned for webhook deliveries whose
// event-type discriminator is not one we track. Client error, no
// store write happens.
var ErrUnsupportedEventType = errors.New("unsupported event type")

// MalformedPayloadError is returned when the webhook body does not
// carry the fields its declared event type requires. Client error.
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload: %s", e.Reason)
}

// IsClientError reports whether err was caused by the caller's input
// rather than by this service or its collaborators. Handlers use it to
// pick the transport status code without string inspection.
func IsClientError(err error) bool {
	var malformed *MalformedPayloadError
	return errors.Is(err, ErrUnsupportedEventType) || errors.As(err, &malformed)
}
