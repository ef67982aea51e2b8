package netmsg

import "testing"

type testPing struct {
	Type string `json:"type"`
	Seq  uint32 `json:"seq"`
}

type testCommand struct {
	CommandType string `json:"commandType"`
	Value       int    `json:"value"`
}

func init() {
	Register("testPing", testPing{})
	Register("testCommand", testCommand{})
}

func TestDecodeDispatchesOnTypeField(t *testing.T) {
	raw, err := Encode(testPing{Type: "testPing", Seq: 7})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	ping, ok := decoded.(*testPing)
	if !ok {
		t.Fatalf("expected *testPing, got %T", decoded)
	}
	if ping.Seq != 7 {
		t.Fatalf("expected seq 7, got %d", ping.Seq)
	}
}

func TestDecodeDispatchesOnCommandTypeField(t *testing.T) {
	raw, err := Encode(testCommand{CommandType: "testCommand", Value: 9})
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	cmd, ok := decoded.(*testCommand)
	if !ok {
		t.Fatalf("expected *testCommand, got %T", decoded)
	}
	if cmd.Value != 9 {
		t.Fatalf("expected value 9, got %d", cmd.Value)
	}
}

func TestDecodeUnknownTypeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"type":"nope"}`))
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestDecodeMissingDiscriminatorErrors(t *testing.T) {
	_, err := Decode([]byte(`{"value":1}`))
	if err == nil {
		t.Fatalf("expected error for missing discriminator")
	}
}

func TestDecodeInvalidJSONErrors(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	if err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
