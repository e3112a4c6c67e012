package capi

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/conversion-relay/internal/pii"
)

func TestBuildEnvelope_HashesEligibleFieldsAndCopiesIdentifiers(t *testing.T) {
	raw := UserData{
		Email:      " Maria@Example.com ",
		Phone:      "(31) 99999-8888",
		FirstName:  "Maria",
		LastName:   "Clara Souza",
		City:       "Belo Horizonte",
		Region:     "MG",
		Postal:     "30130-010",
		ExternalID: "5531999998888",
		FBP:        "fb.1.1700000000.123456",
		FBC:        "fb.1.1700000000.AbCdEf",
	}

	env := BuildEnvelope(KindLead, raw, ContentData("Saúde"), "https://example.com/", "Mozilla/5.0")

	ud := env.UserData
	assert.Equal(t, pii.Hash("maria@example.com"), ud.Email)
	assert.Equal(t, pii.Hash("5531999998888"), ud.Phone)
	assert.Equal(t, pii.Hash("maria"), ud.FirstName)
	assert.Equal(t, pii.Hash("clara souza"), ud.LastName)
	assert.Equal(t, pii.Hash("belo horizonte"), ud.City)
	assert.Equal(t, pii.Hash("mg"), ud.Region)
	assert.Equal(t, pii.Hash("30130-010"), ud.Postal)
	assert.Equal(t, pii.Hash("br"), ud.Country)
	assert.Equal(t, pii.Hash("5531999998888"), ud.ExternalID)

	// Browser identifiers and user agent travel verbatim.
	assert.Equal(t, "fb.1.1700000000.123456", ud.FBP)
	assert.Equal(t, "fb.1.1700000000.AbCdEf", ud.FBC)
	assert.Equal(t, "Mozilla/5.0", ud.UserAgent)

	assert.Equal(t, KindLead, env.EventName)
	assert.Equal(t, "website", env.ActionSource)
	assert.Equal(t, "https://example.com/", env.EventSourceURL)
	assert.Equal(t, map[string]any{"content_name": "Saúde"}, env.CustomData)
	assert.InDelta(t, time.Now().Unix(), env.EventTime, 2)
}

func TestBuildEnvelope_OmitsEmptyFields(t *testing.T) {
	env := BuildEnvelope(KindPageView, UserData{}, nil, "", "")

	b, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))

	// No empty-string leaks anywhere: absent data must be omitted so the
	// platform does not read "unknown" as "empty".
	ud, ok := decoded["user_data"].(map[string]any)
	require.True(t, ok)
	for k, v := range ud {
		assert.NotEqual(t, "", v, "user_data field %q serialized as empty string", k)
	}
	assert.NotContains(t, decoded, "custom_data")
	assert.NotContains(t, decoded, "event_source_url")

	// Country defaults even on anonymous events.
	assert.Equal(t, pii.Hash("br"), ud["country"])
}

func TestBuildEnvelope_DropsEmptyCustomValues(t *testing.T) {
	env := BuildEnvelope(KindModalOpen, UserData{}, map[string]any{
		"modal_name": "  ",
		"filled":     true,
	}, "", "")

	assert.Equal(t, map[string]any{"filled": true}, env.CustomData)
}

func TestNewEventID_Format(t *testing.T) {
	id := NewEventID()
	assert.Regexp(t, regexp.MustCompile(`^\d{13}_[0-9a-f]{13}$`), id)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		next := NewEventID()
		assert.False(t, seen[next], "duplicate event id %s", next)
		seen[next] = true
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{
		KindPageView, KindLead, KindCompleteRegistration, KindInitiateCheckout,
		KindViewContent, KindScroll, KindModalOpen, KindModalClose, KindFormField,
	} {
		got, ok := ParseKind(string(k))
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}

	_, ok := ParseKind("Purchase")
	assert.False(t, ok)
}

func TestHasIdentitySignal(t *testing.T) {
	assert.False(t, WireUserData{}.HasIdentitySignal())
	assert.True(t, WireUserData{Phone: pii.Hash("5531999998888")}.HasIdentitySignal())
	assert.True(t, WireUserData{FBP: "fb.1.1.2"}.HasIdentitySignal())
	assert.True(t, WireUserData{UserAgent: "Mozilla/5.0"}.HasIdentitySignal())
	// City alone is not a usable match key.
	assert.False(t, WireUserData{City: pii.Hash("belo horizonte")}.HasIdentitySignal())
}
