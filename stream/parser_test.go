package stream

import (
	"strings"
	"testing"
)

func collect(t *testing.T) (*Parser, *[]Message, *[]error) {
	t.Helper()
	var msgs []Message
	var errs []error
	p := New(func(m Message) { msgs = append(msgs, m) }, func(e error) { errs = append(errs, e) })
	return p, &msgs, &errs
}

func TestParser_KnownKinds(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Message
	}{
		{
			name: "text",
			line: `{"type":"text","text":"hello"}`,
			want: Message{Kind: KindText, Known: true, Text: "hello"},
		},
		{
			name: "tool_call",
			line: `{"type":"tool_call","tool":"bash","input":{"cmd":"ls"}}`,
			want: Message{Kind: KindToolCall, Known: true, ToolName: "bash"},
		},
		{
			name: "step_finish stop",
			line: `{"type":"step_finish","reason":"stop","tokens":42,"cost":0.01}`,
			want: Message{Kind: KindStepFinish, Known: true, Reason: ReasonStop, Tokens: 42, Cost: 0.01},
		},
		{
			name: "error",
			line: `{"type":"error","error":"boom"}`,
			want: Message{Kind: KindError, Known: true, Err: "boom"},
		},
		{
			name: "unknown type still emitted",
			line: `{"type":"mystery_kind","foo":"bar"}`,
			want: Message{Kind: Kind("mystery_kind"), Known: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, msgs, errs := collect(t)
			p.Feed([]byte(tt.line + "\n"))

			if len(*errs) != 0 {
				t.Fatalf("unexpected errors: %v", *errs)
			}
			if len(*msgs) != 1 {
				t.Fatalf("got %d messages, want 1", len(*msgs))
			}
			got := (*msgs)[0]
			if got.Kind != tt.want.Kind || got.Known != tt.want.Known {
				t.Errorf("kind/known = %v/%v, want %v/%v", got.Kind, got.Known, tt.want.Kind, tt.want.Known)
			}
			if got.Text != tt.want.Text || got.ToolName != tt.want.ToolName ||
				got.Reason != tt.want.Reason || got.Tokens != tt.want.Tokens ||
				got.Cost != tt.want.Cost || got.Err != tt.want.Err {
				t.Errorf("decoded fields = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParser_TextReadsNestedPart(t *testing.T) {
	p, msgs, errs := collect(t)
	p.Feed([]byte(`{"type":"text","part":{"text":"nested hello","sessionID":"sess-9"}}` + "\n"))

	if len(*errs) != 0 {
		t.Fatalf("unexpected errors: %v", *errs)
	}
	if len(*msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(*msgs))
	}
	got := (*msgs)[0]
	if got.Text != "nested hello" {
		t.Errorf("text = %q, want %q", got.Text, "nested hello")
	}
	if got.SessionID != "sess-9" {
		t.Errorf("sessionID = %q, want %q", got.SessionID, "sess-9")
	}
}

func TestParser_ChunkedVersusWhole(t *testing.T) {
	whole := `{"type":"text","text":"first"}` + "\n" + `{"type":"text","text":"second"}` + "\n"

	pWhole, msgsWhole, errsWhole := collect(t)
	pWhole.Feed([]byte(whole))

	pChunked, msgsChunked, errsChunked := collect(t)
	for i := 0; i < len(whole); i++ {
		pChunked.Feed([]byte{whole[i]})
	}

	if len(*errsWhole) != 0 || len(*errsChunked) != 0 {
		t.Fatalf("unexpected errors: whole=%v chunked=%v", *errsWhole, *errsChunked)
	}
	if len(*msgsWhole) != len(*msgsChunked) {
		t.Fatalf("message count differs: whole=%d chunked=%d", len(*msgsWhole), len(*msgsChunked))
	}
	for i := range *msgsWhole {
		if (*msgsWhole)[i].Text != (*msgsChunked)[i].Text {
			t.Errorf("message %d differs: whole=%q chunked=%q", i, (*msgsWhole)[i].Text, (*msgsChunked)[i].Text)
		}
	}
}

func TestParser_DecorationFiltering(t *testing.T) {
	lines := []string{
		"│ a box-drawing header",
		"┌────────────────┐",
		"  ● a bullet point",
		"some plain text with no brace",
		`{"type":"text","text":"kept"}`,
	}

	p, msgs, errs := collect(t)
	p.Feed([]byte(strings.Join(lines, "\n") + "\n"))

	if len(*errs) != 0 {
		t.Fatalf("unexpected errors: %v", *errs)
	}
	if len(*msgs) != 1 {
		t.Fatalf("got %d messages, want 1: %+v", len(*msgs), *msgs)
	}
	if (*msgs)[0].Text != "kept" {
		t.Errorf("text = %q, want %q", (*msgs)[0].Text, "kept")
	}
}

func TestParser_PartialJSONRecovery(t *testing.T) {
	// A truncated '{'-opening line is buffered, not reported as an error,
	// and is discarded (presumed lost) once the next '{'-opening line
	// arrives.
	input := "│ header\n{bad json that never closes\n" + `{"type":"text","text":"recovered"}` + "\n"

	p, msgs, errs := collect(t)
	p.Feed([]byte(input))

	if len(*errs) != 0 {
		t.Fatalf("unexpected errors: %v", *errs)
	}
	if len(*msgs) != 1 {
		t.Fatalf("got %d messages, want 1: %+v", len(*msgs), *msgs)
	}
	if (*msgs)[0].Text != "recovered" {
		t.Errorf("text = %q, want %q", (*msgs)[0].Text, "recovered")
	}
}

func TestParser_FlushRecoversTrailingPartial(t *testing.T) {
	p, msgs, errs := collect(t)
	p.Feed([]byte(`{"type":"text","text":"no newline yet"}`))
	if len(*msgs) != 0 {
		t.Fatalf("message emitted before newline or flush: %+v", *msgs)
	}

	p.Flush()

	if len(*errs) != 0 {
		t.Fatalf("unexpected errors: %v", *errs)
	}
	if len(*msgs) != 1 || (*msgs)[0].Text != "no newline yet" {
		t.Fatalf("flush did not recover trailing line: %+v", *msgs)
	}
}

func TestParser_BufferOverflow(t *testing.T) {
	p, msgs, errs := collect(t)

	overflow := make([]byte, MaxBufferSize+1024)
	for i := range overflow {
		overflow[i] = 'x'
	}
	p.Feed(overflow)

	if len(*errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(*errs), *errs)
	}
	if len(*msgs) != 0 {
		t.Fatalf("got %d messages, want 0: %+v", len(*msgs), *msgs)
	}

	// The parser must recover cleanly at the next newline.
	p.Feed([]byte("\n" + `{"type":"text","text":"back to normal"}` + "\n"))
	if len(*errs) != 1 {
		t.Fatalf("got %d errors after recovery, want 1: %v", len(*errs), *errs)
	}
	if len(*msgs) != 1 || (*msgs)[0].Text != "back to normal" {
		t.Fatalf("parser did not recover after overflow: %+v", *msgs)
	}
}

func TestParser_Reset(t *testing.T) {
	p, msgs, errs := collect(t)
	p.Feed([]byte(`{"type":"text","text":"partial`))
	p.Reset()
	p.Flush()

	if len(*errs) != 0 || len(*msgs) != 0 {
		t.Fatalf("reset did not discard buffered state: msgs=%+v errs=%v", *msgs, *errs)
	}

	p.Feed([]byte(`{"type":"text","text":"fresh"}` + "\n"))
	if len(*msgs) != 1 || (*msgs)[0].Text != "fresh" {
		t.Fatalf("parser unusable after reset: %+v", *msgs)
	}
}

func TestParser_CRLF(t *testing.T) {
	p, msgs, errs := collect(t)
	p.Feed([]byte(`{"type":"text","text":"crlf"}` + "\r\n"))

	if len(*errs) != 0 {
		t.Fatalf("unexpected errors: %v", *errs)
	}
	if len(*msgs) != 1 || (*msgs)[0].Text != "crlf" {
		t.Fatalf("CRLF line not parsed: %+v", *msgs)
	}
}
