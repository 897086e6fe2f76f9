package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

const maxReferrerLength = 500

// ErrInvalidPayload is returned for stream entries that can never be processed.
var ErrInvalidPayload = errors.New("invalid intake event payload")

// Validate checks the fields a consumer relies on.
func (e IntakeSubmitted) Validate() error {
	if e.Type != TypeIntakeSubmitted {
		return fmt.Errorf("unexpected type %q", e.Type)
	}
	if e.CustomerID == "" {
		return errors.New("cid is required")
	}
	if e.SubmittedAt <= 0 {
		return errors.New("t must be set")
	}
	if len(e.Referrer) > maxReferrerLength {
		return errors.New("ref too long")
	}
	return nil
}

// DecodeIntakeSubmitted parses and validates the payload field of a stream entry.
func DecodeIntakeSubmitted(payload string) (IntakeSubmitted, error) {
	var event IntakeSubmitted
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return IntakeSubmitted{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := event.Validate(); err != nil {
		return IntakeSubmitted{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return event, nil
}
