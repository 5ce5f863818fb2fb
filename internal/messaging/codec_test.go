package messaging

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/user/scamshield-agent/internal/entity"
)

// encode writes m with its type discriminator, the shape Decode reads.
func encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, errors.New("encode: nil message")
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("encode: %T is not an object", m)
	}
	typ, err := json.Marshal(m.MessageType())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func TestDecode(t *testing.T) {
	raw := []byte(`{"type":"SELECT_POST","tabId":12,"index":2}`)
	msg, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	sel, ok := msg.(*SelectPost)
	if !ok {
		t.Fatalf("decoded %T, want *SelectPost", msg)
	}
	if sel.TabID != 12 || sel.Index != 2 {
		t.Errorf("got %+v", sel)
	}
}

func TestDecodeNested(t *testing.T) {
	raw := []byte(`{"type":"SUBMIT_REPORT","tabId":3,
		"content":{"type":"email","email":{"subject":"Urgent","from_email":"x@y.com","content":"Verify"}},
		"result":{"risk_level":"High","analysis":"","recommended_action":"","target_language":"en"}}`)
	msg, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	rep := msg.(*SubmitReport)
	if rep.Content.Type != entity.ScamEmail || rep.Content.Email.Subject != "Urgent" || rep.Result.RiskLevel != "High" {
		t.Errorf("got %+v", rep)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{`{"tabId":1}`, ErrMissingType},
		{`{"type":"OPEN_POPUP"}`, ErrUnknownType},
	}
	for _, tt := range tests {
		if _, err := Decode([]byte(tt.raw)); !errors.Is(err, tt.want) {
			t.Errorf("Decode(%s) err = %v, want %v", tt.raw, err, tt.want)
		}
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Error("Decode(not json) should fail")
	}
	if _, err := Decode([]byte(`{"type":"SELECT_POST","index":"two"}`)); err == nil {
		t.Error("a field of the wrong type should fail")
	}
}

func TestEncode(t *testing.T) {
	raw, err := encode(TabUpdated{TabID: 4, URL: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), `{"type":"TAB_UPDATED",`) {
		t.Errorf("Encode = %s", raw)
	}
	raw, _ = encode(GetSettings{})
	if string(raw) != `{"type":"GET_SETTINGS"}` {
		t.Errorf("encode(empty) = %s", raw)
	}
}

func TestEncodeRejectsNil(t *testing.T) {
	var sel *SelectPost
	for _, m := range []Message{nil, sel} {
		if raw, err := encode(m); err == nil {
			t.Errorf("encode(%T) = %s, want error", m, raw)
		}
	}
}

func TestRegistryIsClosed(t *testing.T) {
	if n := len(registry); n != 28 {
		t.Errorf("registry has %d types, want 28", n)
	}
	for typ, newMsg := range registry {
		msg := newMsg()
		if msg.MessageType() != typ {
			t.Errorf("registry[%s] builds %T reporting %s", typ, msg, msg.MessageType())
		}
		raw, err := encode(msg)
		if err != nil {
			t.Fatalf("encode(%s): %v", typ, err)
		}
		back, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%s): %v", raw, err)
		}
		if back.MessageType() != typ {
			t.Errorf("%s decoded as %s", typ, back.MessageType())
		}
	}
}
