package apperr

import "testing"

func TestIsKind(t *testing.T) {
	err := NotFound("Client", "id", 7)
	if !IsKind(err, KindNotFound) {
		t.Error("NotFound not recognized by IsKind")
	}
	if IsKind(err, KindAlreadyExists) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(nil, KindNotFound) {
		t.Error("IsKind matched nil")
	}
}

func TestAlreadyExists_ModelID(t *testing.T) {
	err := AlreadyExists("Client", "phone", "+79110000001", 7)
	if err.Kwargs["model_id"] != uint(7) {
		t.Errorf("model_id kwarg = %v, want 7", err.Kwargs["model_id"])
	}

	anonymous := AlreadyExists("Click", "ip", "203.0.113.7", 0)
	if _, ok := anonymous.Kwargs["model_id"]; ok {
		t.Error("zero model id must not appear in kwargs")
	}
}

// TestFromWire_RoundTrip: an error enveloped by the server and rebuilt by the
// client keeps its kind.
func TestFromWire_RoundTrip(t *testing.T) {
	wire := map[string]any{
		"kind":     string(KindAlreadyExists),
		"model":    "Client",
		"model_id": float64(7),
	}
	err := FromWire("Client already exists", wire)
	if !IsKind(err, KindAlreadyExists) {
		t.Fatal("kind lost across the wire")
	}
	if err.Kwargs["model_id"] != float64(7) {
		t.Errorf("kwargs lost across the wire: %v", err.Kwargs)
	}
}
