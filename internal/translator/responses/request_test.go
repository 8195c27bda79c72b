package responses

import (
	"strings"
	"testing"

	"github.com/modelrelay/modelrelay/internal/relay"
)

func TestParseRequest_BareStringInput(t *testing.T) {
	msgs, err := ParseRequest([]byte(`{"model":"gpt-4o","input":"Hello"}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != relay.RoleUser || msgs[0].Text() != "Hello" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestParseRequest_MessagesWinOverInput(t *testing.T) {
	body := `{"messages":[{"role":"user","content":"from messages"}],"input":"from input"}`
	msgs, err := ParseRequest([]byte(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text() != "from messages" {
		t.Fatalf("expected messages to take precedence, got %+v", msgs)
	}
}

func TestParseRequest_SystemRoleRelabelled(t *testing.T) {
	body := `{"input":[{"role":"system","content":"be terse"},{"role":"user","content":"hi"}]}`
	msgs, err := ParseRequest([]byte(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != relay.RoleUser {
		t.Fatalf("system message should be re-labelled user, got %q", msgs[0].Role)
	}
	if !strings.HasPrefix(msgs[0].Text(), "[system prompt]\n") {
		t.Fatalf("missing system prompt marker: %q", msgs[0].Text())
	}
	if !strings.HasSuffix(msgs[0].Text(), "be terse") {
		t.Fatalf("system text lost: %q", msgs[0].Text())
	}
}

func TestParseRequest_ContentPartArray(t *testing.T) {
	body := `{"input":[{"role":"user","content":[
		{"type":"input_text","text":"a"},
		{"type":"image_url","image_url":{"url":"http://x"}},
		{"type":"output_text","text":"b"}
	]}]}`
	msgs, err := ParseRequest([]byte(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := msgs[0].Text(); got != "ab" {
		t.Fatalf("expected non-text parts skipped, got %q", got)
	}
}

func TestParseRequest_UnknownRoleDegradesToUser(t *testing.T) {
	msgs, err := ParseRequest([]byte(`{"input":[{"role":"tool","content":"x"}]}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if msgs[0].Role != relay.RoleUser {
		t.Fatalf("expected user fallback, got %q", msgs[0].Role)
	}
}

func TestParseRequest_MissingBothFields(t *testing.T) {
	if _, err := ParseRequest([]byte(`{"model":"gpt-4o"}`)); err == nil {
		t.Fatal("expected error when neither messages nor input is present")
	}
}
