// Package apperr defines the structured errors surfaced through the API
// envelope. Every error carries a kind, a human message, and a kwargs payload
// identifying the failing entity or field, so callers (including our own
// reconciliation job) can act on failures programmatically.
package apperr

import "fmt"

type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindAlreadyExists        Kind = "already_exists"
	KindMissingPermission    Kind = "missing_permission"
	KindInvalidToken         Kind = "invalid_token"
	KindMalformedToken       Kind = "malformed_token"
	KindInvalidRootToken     Kind = "invalid_root_token"
	KindInvalidTasksToken    Kind = "invalid_tasks_token"
	KindWrongPassword        Kind = "wrong_password"
	KindInvalidPhoneFormat   Kind = "invalid_phone_format"
	KindInvalidCodeFormat    Kind = "invalid_code_format"
	KindMissingRequiredParam Kind = "no_required_parameters"
)

type Error struct {
	Kind    Kind
	Message string
	Kwargs  map[string]any
}

func (e *Error) Error() string {
	if len(e.Kwargs) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s %v", e.Message, e.Kwargs)
}

// As unwraps err into *Error when it is one.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	if e, ok := As(err); ok {
		return e.Kind == kind
	}
	return false
}

// NotFound covers both absent rows and soft-deleted ones.
func NotFound(model, idType string, idValue any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s does not exist", model),
		Kwargs: map[string]any{
			"model":    model,
			"id_type":  idType,
			"id_value": idValue,
		},
	}
}

// AlreadyExists reports a uniqueness violation. modelID is the conflicting
// row's id when known (0 otherwise); the sync job reuses it.
func AlreadyExists(model, idType string, idValue any, modelID uint) *Error {
	kwargs := map[string]any{
		"model":    model,
		"id_type":  idType,
		"id_value": idValue,
	}
	if modelID != 0 {
		kwargs["model_id"] = modelID
	}
	return &Error{
		Kind:    KindAlreadyExists,
		Message: fmt.Sprintf("%s already exists", model),
		Kwargs:  kwargs,
	}
}

func MissingPermission(idStr string) *Error {
	return &Error{
		Kind:    KindMissingPermission,
		Message: fmt.Sprintf("account has no %q permission", idStr),
		Kwargs:  map[string]any{"permission": idStr},
	}
}

func MalformedToken() *Error {
	return &Error{Kind: KindMalformedToken, Message: "token does not match format"}
}

func InvalidToken() *Error {
	return &Error{Kind: KindInvalidToken, Message: "wrong token"}
}

func InvalidRootToken() *Error {
	return &Error{Kind: KindInvalidRootToken, Message: "wrong root token"}
}

func InvalidTasksToken() *Error {
	return &Error{Kind: KindInvalidTasksToken, Message: "wrong tasks token"}
}

func WrongPassword() *Error {
	return &Error{Kind: KindWrongPassword, Message: "wrong password"}
}

func InvalidPhoneFormat(phone string) *Error {
	return &Error{
		Kind:    KindInvalidPhoneFormat,
		Message: "invalid phone number format",
		Kwargs:  map[string]any{"phone": phone},
	}
}

func InvalidCodeFormat(variable string) *Error {
	return &Error{
		Kind:    KindInvalidCodeFormat,
		Message: "variable does not match format",
		Kwargs:  map[string]any{"variable": variable},
	}
}

// MissingRequiredParameter rejects an update that names no fields to change.
func MissingRequiredParameter(parameters ...string) *Error {
	return &Error{
		Kind:    KindMissingRequiredParam,
		Message: "at least one parameter is required",
		Kwargs:  map[string]any{"parameters": parameters},
	}
}

// FromWire rebuilds an *Error from a decoded envelope payload. The kind is
// recovered from the "kind" kwarg when present so IsKind keeps working across
// the HTTP boundary.
func FromWire(message string, kwargs map[string]any) *Error {
	kind := Kind("")
	if k, ok := kwargs["kind"].(string); ok {
		kind = Kind(k)
	}
	return &Error{Kind: kind, Message: message, Kwargs: kwargs}
}
