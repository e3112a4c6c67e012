package capi

// Kind is the closed set of event names understood by the destination
// platform. The kind determines which custom-data keys an envelope carries.
type Kind string

const (
	KindPageView             Kind = "PageView"
	KindLead                 Kind = "Lead"
	KindCompleteRegistration Kind = "CompleteRegistration"
	KindInitiateCheckout     Kind = "InitiateCheckout"
	KindViewContent          Kind = "ViewContent"
	KindScroll               Kind = "Scroll"
	KindModalOpen            Kind = "ModalOpen"
	KindModalClose           Kind = "ModalClose"
	KindFormField            Kind = "FormField"
)

// ParseKind validates a wire string against the closed enumeration.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindPageView, KindLead, KindCompleteRegistration, KindInitiateCheckout,
		KindViewContent, KindScroll, KindModalOpen, KindModalClose, KindFormField:
		return Kind(s), true
	}
	return "", false
}

// UserData is the raw, caller-supplied identity record. All fields are
// optional; the builder decides which get hashed and which travel verbatim.
type UserData struct {
	Email      string
	Phone      string
	FirstName  string
	LastName   string
	City       string
	Region     string
	Country    string
	Postal     string
	ExternalID string

	// Browser identifiers and request context. Never hashed.
	FBP       string
	FBC       string
	UserAgent string
	ClientIP  string
}

// WireUserData is the user_data block in the platform's expected shape.
// Hash-eligible fields hold lower-case hex digests; fbp/fbc/user agent/IP are
// verbatim. Everything is omitempty so absent data is omitted, never "".
type WireUserData struct {
	Email      string `json:"em,omitempty"`
	Phone      string `json:"ph,omitempty"`
	FirstName  string `json:"fn,omitempty"`
	LastName   string `json:"ln,omitempty"`
	City       string `json:"ct,omitempty"`
	Region     string `json:"st,omitempty"`
	Postal     string `json:"zp,omitempty"`
	Country    string `json:"country,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	FBP        string `json:"fbp,omitempty"`
	FBC        string `json:"fbc,omitempty"`
	UserAgent  string `json:"client_user_agent,omitempty"`
	ClientIP   string `json:"client_ip_address,omitempty"`
}

// HasIdentitySignal reports whether the record carries at least one
// identifier the platform can match on. Events without any are rejected
// upstream, so the gate refuses them locally instead.
func (u WireUserData) HasIdentitySignal() bool {
	return u.FBP != "" || u.FBC != "" || u.Email != "" || u.Phone != "" || u.UserAgent != ""
}

// Envelope is one event in the platform's wire shape.
type Envelope struct {
	EventName      Kind           `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       WireUserData   `json:"user_data"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
}

// payload is the request body: an array with exactly one event under "data".
type payload struct {
	Data []Envelope `json:"data"`
}

// PlatformError is the structured error object the platform returns on
// rejection, sometimes inside an HTTP 200 response.
type PlatformError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	FBTraceID    string `json:"fbtrace_id,omitempty"`
}

func (e *PlatformError) Error() string {
	return "platform rejected event: " + e.Message
}

// Response is the platform's reply to an events POST.
type Response struct {
	EventsReceived int            `json:"events_received"`
	Messages       []string       `json:"messages,omitempty"`
	FBTraceID      string         `json:"fbtrace_id,omitempty"`
	Err            *PlatformError `json:"error,omitempty"`
}
