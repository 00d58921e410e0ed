package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// MaxBufferSize is the hard cap on the parser's internal buffer. Exceeding
// it emits an error and truncates the buffer; normal framing resumes at the
// next newline.
const MaxBufferSize = 10 * 1024 * 1024

// decorations is the set of box-drawing / bullet glyphs terminal CLIs use
// to decorate structured output; a line opening with one of these is a
// rendering ornament, never a JSON object, and is dropped silently.
var decorations = map[rune]bool{
	'│': true, '┌': true, '┐': true, '└': true, '┘': true,
	'├': true, '┤': true, '┬': true, '┴': true, '┼': true,
	'─': true, '◆': true, '●': true, '○': true, '◇': true,
}

// Parser turns a raw byte stream into a sequence of validated protocol
// messages. feed is never allowed to throw: malformed lines are absorbed
// silently, a buffer overflow is reported via onError, and the parser always
// recovers at the next newline.
type Parser struct {
	buf            []byte
	pendingPartial *string

	onMessage func(Message)
	onError   func(error)
}

// New creates a Parser. onMessage is called synchronously, in arrival
// order, for every validated message. onError is called when the buffer
// exceeds MaxBufferSize; everything buffered at that moment, including any
// complete lines in the chunk that overflowed it, is discarded.
func New(onMessage func(Message), onError func(error)) *Parser {
	return &Parser{onMessage: onMessage, onError: onError}
}

// Feed appends bytes to the internal buffer and synchronously emits zero or
// more Message events in arrival order. It never panics.
func (p *Parser) Feed(data []byte) {
	p.buf = append(p.buf, data...)

	if len(p.buf) > MaxBufferSize {
		p.emitError(fmt.Errorf("stream: %s", "Stream buffer size exceeded maximum limit"))
		p.buf = p.buf[:0]
		p.pendingPartial = nil
		return
	}

	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			break
		}
		line := p.buf[:idx]
		rest := make([]byte, len(p.buf)-idx-1)
		copy(rest, p.buf[idx+1:])
		p.buf = rest

		p.processLine(line)
	}
}

// Flush attempts to parse any trailing buffered content (a line with no
// terminating newline, or a line that looked truncated) as one final line.
func (p *Parser) Flush() {
	if len(p.buf) > 0 {
		p.processLine(p.buf)
		p.buf = p.buf[:0]
	}
	if p.pendingPartial != nil {
		line := *p.pendingPartial
		p.pendingPartial = nil
		if msg, ok := parseLine(line); ok {
			p.dispatch(msg)
		}
	}
}

// Reset discards the buffer and resets parsing state; the next Feed call
// behaves as on a fresh instance.
func (p *Parser) Reset() {
	p.buf = p.buf[:0]
	p.pendingPartial = nil
}

func (p *Parser) processLine(raw []byte) {
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	trimmed := bytes.TrimLeft(raw, " \t")
	if len(trimmed) == 0 {
		return
	}
	if isDecoration(trimmed) {
		return
	}

	line := string(trimmed)

	// Any line that reaches here begins with '{' (isDecoration rejects
	// everything else), so a prior buffered partial is presumed lost.
	p.pendingPartial = nil

	msg, ok := parseLine(line)
	if !ok {
		p.pendingPartial = &line
		return
	}
	p.dispatch(msg)
}

func (p *Parser) dispatch(msg Message) {
	if p.onMessage != nil {
		p.onMessage(msg)
	}
}

func (p *Parser) emitError(err error) {
	if p.onError != nil {
		p.onError(err)
	}
}

// isDecoration reports whether trimmed (already left-trimmed, non-empty)
// opens with a decoration glyph, a control character, or anything other
// than '{' — i.e. whether the line should be discarded before it is ever
// offered to the JSON parser.
func isDecoration(trimmed []byte) bool {
	r, _ := utf8.DecodeRune(trimmed)
	if r < 0x20 && r != '\t' {
		return true
	}
	if decorations[r] {
		return true
	}
	return r != '{'
}

type wireToolState struct {
	Input  any    `json:"input"`
	Output any    `json:"output"`
	Status string `json:"status"`
}

// wirePart is the nested shape some events carry their text payload under,
// alongside (not instead of) the top-level text/sessionID fields.
type wirePart struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionID"`
}

type wireEnvelope struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionID"`
	Text      string         `json:"text"`
	Part      *wirePart      `json:"part"`
	Tool      string         `json:"tool"`
	Input     any            `json:"input"`
	State     *wireToolState `json:"state"`
	Output    any            `json:"output"`
	Reason    string         `json:"reason"`
	Tokens    int            `json:"tokens"`
	Cost      float64        `json:"cost"`
	Error     string         `json:"error"`
}

// parseLine attempts to parse line as one protocol message. It returns
// false for anything that is not a well-formed JSON object with a non-empty
// "type" field — the partial-JSON policy treats that the same as a
// truncated line.
func parseLine(line string) (Message, bool) {
	var env wireEnvelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		return Message{}, false
	}
	if env.Type == "" {
		return Message{}, false
	}

	var raw map[string]any
	_ = json.Unmarshal([]byte(line), &raw)

	msg := Message{
		Kind:      Kind(env.Type),
		Known:     Kind(env.Type).known(),
		SessionID: env.SessionID,
		Raw:       raw,
	}

	switch msg.Kind {
	case KindText:
		msg.Text = env.Text
		if env.Part != nil {
			if env.Part.Text != "" {
				msg.Text = env.Part.Text
			}
			if env.Part.SessionID != "" {
				msg.SessionID = env.Part.SessionID
			}
		}
	case KindToolCall:
		msg.ToolName = env.Tool
		msg.ToolInput = env.Input
	case KindToolUse:
		msg.ToolName = env.Tool
		if env.State != nil {
			msg.ToolUseState = ToolUseResult{
				Input:  env.State.Input,
				Output: env.State.Output,
				Status: ToolState(env.State.Status),
			}
		}
	case KindToolResult:
		msg.Output = stringify(env.Output)
	case KindStepFinish:
		msg.Reason = StepFinishReason(env.Reason)
		msg.Tokens = env.Tokens
		msg.Cost = env.Cost
	case KindError:
		msg.Err = env.Error
	}

	return msg, true
}

// stringify renders a decoded JSON value as text: strings pass through
// unchanged, everything else is re-marshalled compactly.
func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
