package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeCandidate builds a validated Candidate from a loosely typed payload
// such as a decoded JSON object.
func DecodeCandidate(raw map[string]any) (*Candidate, error) {
	var c Candidate
	if err := decodeMap(raw, &c); err != nil {
		return nil, &Error{Kind: KindValidation, Field: "candidate", Message: "malformed payload", Cause: err}
	}
	return NewCandidate(c)
}

// DecodeOpportunity builds a validated Opportunity from a loosely typed
// payload.
func DecodeOpportunity(raw map[string]any) (*Opportunity, error) {
	var o Opportunity
	if err := decodeMap(raw, &o); err != nil {
		return nil, &Error{Kind: KindValidation, Field: "opportunity", Message: "malformed payload", Cause: err}
	}
	return NewOpportunity(o)
}

func decodeMap(raw map[string]any, out any) error {
	if raw == nil {
		return fmt.Errorf("payload is empty")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
