package edge

import (
	"encoding/json"
	"net/http"
)

// Kind is the terminal state of one dispatch. It doubles as the metric label.
type Kind string

// Terminal states.
const (
	KindPassThrough Kind = "pass_through"
	KindServed      Kind = "served"
	KindRedirect    Kind = "redirect"
	KindBadRequest  Kind = "bad_request"
	KindNotFound    Kind = "not_found"
	KindConfigError Kind = "config_error"
	KindRateLimited Kind = "rate_limited"
)

// Response headers for served documents.
const (
	ContentTypeHTML = "text/html; charset=UTF-8"
	CacheControl    = "public, max-age=3600, s-maxage=3600"
)

// Error bodies on the renderer endpoint.
const (
	msgMissingIdentifier = "Missing slug or id"
	msgNotFound          = "Article not found"
	msgConfig            = "Server configuration error"
	msgRateLimited       = "Too many requests"
)

// Outcome is what an adapter must do with the request.
type Outcome struct {
	Kind     Kind
	Status   int
	Body     []byte
	Location string
	// Reason is a short diagnostic for logs; it is never sent to clients.
	Reason string
}

// PassThrough reports whether the adapter should hand the request on.
func (o Outcome) PassThrough() bool {
	return o.Kind == KindPassThrough
}

// ContentType is the body media type for non-pass-through outcomes.
func (o Outcome) ContentType() string {
	switch o.Kind {
	case KindServed:
		return ContentTypeHTML
	case KindBadRequest, KindNotFound, KindConfigError, KindRateLimited:
		return "application/json"
	default:
		return ""
	}
}

// Write renders o onto w. It is a no-op for pass-through outcomes.
func (o Outcome) Write(w http.ResponseWriter) {
	switch o.Kind {
	case KindPassThrough:
		return
	case KindRedirect:
		w.Header().Set("Location", o.Location)
		w.WriteHeader(o.Status)
		return
	case KindServed:
		w.Header().Set("Cache-Control", CacheControl)
	}
	w.Header().Set("Content-Type", o.ContentType())
	w.WriteHeader(o.Status)
	_, _ = w.Write(o.Body)
}

func passThrough(reason string) Outcome {
	return Outcome{Kind: KindPassThrough, Reason: reason}
}

func served(body []byte) Outcome {
	return Outcome{Kind: KindServed, Status: http.StatusOK, Body: body}
}

func redirect(location string) Outcome {
	return Outcome{Kind: KindRedirect, Status: http.StatusFound, Location: location, Reason: "human"}
}

func jsonError(kind Kind, status int, msg, reason string) Outcome {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return Outcome{Kind: kind, Status: status, Body: body, Reason: reason}
}
