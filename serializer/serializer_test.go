package serializer

import (
	"testing"

	"slacker/packet"
)

func TestJSONSerializeDeserialize(t *testing.T) {
	data, err := JSON.Serialize([]int{1, 2, 3})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var out []int
	if err := JSON.Deserialize(data, &out); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if len(out) != 3 || out[0] != 1 || out[2] != 3 {
		t.Errorf("unexpected round trip: %v", out)
	}
}

func TestDeserializeVecRequiresArray(t *testing.T) {
	items, err := JSON.DeserializeVec([]byte(`[1,2]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if _, err := JSON.DeserializeVec([]byte(`{"a":1}`)); err == nil {
		t.Fatal("expected error for non-array top-level payload")
	}
	if _, err := JSON.DeserializeVec([]byte(``)); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := JSON.DeserializeVec([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestRegistryLooksUpByContentType(t *testing.T) {
	reg := NewRegistry()
	s, ok := reg.Get(packet.JSONContentType)
	if !ok || s == nil {
		t.Fatal("expected JSON serializer registered by default")
	}
	if _, ok := reg.Get(0xEE); ok {
		t.Fatal("expected no serializer registered for unknown content type")
	}
}
