package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Booking is the part of a created document the escalator relies on.
type Booking struct {
	ID           string
	Permissions  []string
	CollectionID string
	DatabaseID   string
	// Fields is the whole document as decoded JSON, used by trigger conditions.
	Fields map[string]any
}

// bookingDocument mirrors the event payload. Pointers tell "absent or null"
// apart from present values.
type bookingDocument struct {
	ID           *string    `json:"$id"`
	Permissions  *[]*string `json:"$permissions"`
	CollectionID string     `json:"$collectionId"`
	DatabaseID   string     `json:"$databaseId"`
}

// ExtractPayload picks the raw body when it is non-empty and the legacy
// payload field otherwise. A blank pick is a missing payload; a
// whitespace-only body does not fall through to the payload field.
func ExtractPayload(bodyRaw, payload string) (string, error) {
	raw := bodyRaw
	if raw == "" {
		raw = payload
	}
	if strings.TrimSpace(raw) == "" {
		return "", PayloadMissingError()
	}
	return raw, nil
}

// ParsePayload decodes raw into a Booking and validates the required fields.
// Malformed JSON yields a PAYLOAD_PARSE_ERROR; well-formed JSON of the wrong
// shape or with missing fields yields PAYLOAD_INVALID.
func ParsePayload(raw string) (*Booking, error) {
	var doc bookingDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, PayloadInvalidError(shapeDetail(typeErr))
		}
		return nil, PayloadParseError(err)
	}

	if doc.ID == nil || *doc.ID == "" {
		return nil, PayloadInvalidError("missing $id")
	}
	if doc.Permissions == nil || len(*doc.Permissions) == 0 {
		return nil, PayloadInvalidError("missing $permissions")
	}
	perms := make([]string, 0, len(*doc.Permissions))
	for i, p := range *doc.Permissions {
		if p == nil || strings.TrimSpace(*p) == "" {
			return nil, PayloadInvalidError(fmt.Sprintf("$permissions[%d] is empty", i))
		}
		perms = append(perms, *p)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, PayloadParseError(err)
	}

	return &Booking{
		ID:           *doc.ID,
		Permissions:  perms,
		CollectionID: doc.CollectionID,
		DatabaseID:   doc.DatabaseID,
		Fields:       fields,
	}, nil
}

func shapeDetail(err *json.UnmarshalTypeError) string {
	if err.Field == "" {
		return fmt.Sprintf("expected a document object, got %s", err.Value)
	}
	return fmt.Sprintf("%s has unexpected type %s", err.Field, err.Value)
}
