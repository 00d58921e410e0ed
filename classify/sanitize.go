package classify

import (
	"regexp"
	"strconv"
	"strings"
)

// ansiPattern strips ANSI CSI escape sequences from terminal output.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// oscPattern strips ANSI OSC escape sequences (terminal title changes,
// hyperlinks), terminated by either BEL or a string terminator.
var oscPattern = regexp.MustCompile(`\x1b\][^\x07]*(?:\x07|\x1b\\)`)

// wsURLPattern removes WebSocket endpoint URLs that tools sometimes echo
// into their output; they are an internal transport detail, not content.
var wsURLPattern = regexp.MustCompile(`wss?://\S+`)

// refTokenPattern removes internal reference tokens like [ref=e12] or
// [cursor=3] that a browser-automation tool embeds in its own output.
var refTokenPattern = regexp.MustCompile(`\[(?:ref|cursor)=[^\]]*\]`)

// callLogPattern truncates a "Call log:" tail some CLI tools append after
// an error; everything from that marker onward is internal tracing noise.
var callLogPattern = regexp.MustCompile(`(?s)Call log:.*$`)

// runOfSpaces collapses repeated spaces (but not newlines) into one.
var runOfSpaces = regexp.MustCompile(`[ \t]{2,}`)

// runOfBlankLines collapses 3 or more consecutive newlines into 2.
var runOfBlankLines = regexp.MustCompile(`\n{3,}`)

// internalTags are XML blocks that must never reach a host: scratch
// reasoning, nudges, and scaffolding the model is not meant to surface.
var internalTags = []string{"instruction", "thought", "nudge", "scratchpad", "thinking", "reflection"}

var internalTagPattern = buildInternalTagPattern()

func buildInternalTagPattern() *regexp.Regexp {
	alts := make([]string, len(internalTags))
	for i, tag := range internalTags {
		alts[i] = "<" + tag + ">.*?</" + tag + ">"
	}
	return regexp.MustCompile(`(?s)(?:` + strings.Join(alts, "|") + `)`)
}

// timeoutPattern captures the millisecond count out of a raw CLI timeout
// message so it can be re-rendered in seconds.
var timeoutPattern = regexp.MustCompile(`timed out after (\d+)ms`)

// errorSubstitutions maps a raw error substring to a short human message,
// tried in order against the raw (ANSI-stripped) error text.
var errorSubstitutions = []struct {
	match       string
	replacement string
}{
	{"net::ERR_CONNECTION_REFUSED", "Connection refused"},
	{"net::ERR_NAME_NOT_RESOLVED", "Could not resolve host"},
	{"ECONNREFUSED", "Connection refused"},
	{"ENOENT", "File or directory not found"},
	{"EACCES", "Permission denied"},
}

// Sanitize applies the full output-sanitization pipeline to a tool's raw
// textual output: ANSI stripping, internal-token removal, call-log
// truncation, whitespace collapsing, and internal-XML-block stripping. It
// does not perform screenshot extraction — callers that want attachments
// extracted should call ExtractScreenshots on the result.
func Sanitize(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	s = wsURLPattern.ReplaceAllString(s, "")
	s = refTokenPattern.ReplaceAllString(s, "")
	s = callLogPattern.ReplaceAllString(s, "")
	s = internalTagPattern.ReplaceAllString(s, "")
	s = runOfSpaces.ReplaceAllString(s, " ")
	s = runOfBlankLines.ReplaceAllString(s, "\n\n")
	return s
}

// StripANSI removes ANSI CSI and OSC escape sequences from s and nothing
// else. It is safe to apply to a child process's raw output before that
// output is handed to the stream parser, unlike Sanitize, which also
// removes content (internal tags, reference tokens) that would corrupt an
// in-flight JSON line.
func StripANSI(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	s = oscPattern.ReplaceAllString(s, "")
	return s
}

// authFailurePatterns are substrings that identify a provider authentication
// failure in a raw error message, distinguishing it from a transient network
// or tool-execution error that should just terminate the task failed.
var authFailurePatterns = []string{
	"invalid api key",
	"invalid_api_key",
	"invalid x-api-key",
	"api key not found",
	"unauthorized",
	"authentication_error",
	"authentication failed",
	" 401 ",
}

// IsAuthFailure reports whether raw looks like a provider authentication
// failure rather than an ordinary tool, network, or process error.
func IsAuthFailure(raw string) bool {
	lower := strings.ToLower(raw)
	for _, p := range authFailurePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// HumanizeError reduces a raw error message to a short human-readable
// form, falling back to the ANSI-stripped original when no known pattern
// matches.
func HumanizeError(raw string) string {
	raw = ansiPattern.ReplaceAllString(raw, "")

	if m := timeoutPattern.FindStringSubmatch(raw); m != nil {
		if ms, err := strconv.Atoi(m[1]); err == nil {
			return "Timed out after " + strconv.Itoa(ms/1000) + "s"
		}
	}

	for _, sub := range errorSubstitutions {
		if strings.Contains(raw, sub.match) {
			return sub.replacement
		}
	}
	return raw
}
