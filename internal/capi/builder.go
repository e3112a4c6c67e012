package capi

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edupulse/conversion-relay/internal/pii"
)

// defaultCountry is the two-letter lower-case code stamped on every event
// when the caller does not supply one.
const defaultCountry = "br"

// NewEventID generates an id unique per logical occurrence: unix millis plus
// a random suffix. The platform uses it to dedupe client/server
// double-reporting of the same occurrence.
func NewEventID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), suffix)
}

// hashUserData produces the wire-shape user_data block: hash-eligible fields
// trimmed, lower-cased and digested; browser identifiers copied verbatim;
// empty inputs dropped so no field is ever transmitted as "".
//
// Phone is normalized to the 55-prefixed digit string before hashing so the
// digest matches regardless of the formatting the visitor typed.
func hashUserData(raw UserData) WireUserData {
	country := raw.Country
	if country == "" {
		country = defaultCountry
	}

	return WireUserData{
		Email:      pii.Hash(raw.Email),
		Phone:      pii.Hash(pii.NormalizePhone(raw.Phone)),
		FirstName:  pii.Hash(raw.FirstName),
		LastName:   pii.Hash(raw.LastName),
		City:       pii.Hash(raw.City),
		Region:     pii.Hash(raw.Region),
		Postal:     pii.Hash(raw.Postal),
		Country:    pii.Hash(country),
		ExternalID: pii.Hash(raw.ExternalID),
		FBP:        strings.TrimSpace(raw.FBP),
		FBC:        strings.TrimSpace(raw.FBC),
		UserAgent:  strings.TrimSpace(raw.UserAgent),
		ClientIP:   strings.TrimSpace(raw.ClientIP),
	}
}

// BuildEnvelope assembles the complete wire envelope for one event: hashed
// user data, kind-specific custom data (empty values dropped), current
// wall-clock event time, and a fresh event id.
func BuildEnvelope(kind Kind, raw UserData, custom map[string]any, sourceURL, userAgent string) Envelope {
	if userAgent != "" && raw.UserAgent == "" {
		raw.UserAgent = userAgent
	}

	cd := make(map[string]any, len(custom))
	for k, v := range custom {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		if v == nil {
			continue
		}
		cd[k] = v
	}
	if len(cd) == 0 {
		cd = nil
	}

	return Envelope{
		EventName:      kind,
		EventTime:      time.Now().Unix(),
		EventID:        NewEventID(),
		ActionSource:   "website",
		EventSourceURL: strings.TrimSpace(sourceURL),
		UserData:       hashUserData(raw),
		CustomData:     cd,
	}
}

// Custom-data constructors for the kinds that carry a fixed shape.

// ScrollData carries the milestone just crossed.
func ScrollData(percentage int) map[string]any {
	return map[string]any{"scroll_percentage": percentage}
}

// FormFieldData reports a single field completion.
func FormFieldData(fieldName string, filled bool) map[string]any {
	return map[string]any{"field_name": fieldName, "filled": filled}
}

// ModalData identifies the modal opened or closed.
func ModalData(modalName string) map[string]any {
	if modalName == "" {
		return nil
	}
	return map[string]any{"modal_name": modalName}
}

// ContentData names the course for Lead, ViewContent and InitiateCheckout.
func ContentData(courseName string) map[string]any {
	if courseName == "" {
		return nil
	}
	return map[string]any{"content_name": courseName}
}
