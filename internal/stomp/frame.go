// Package stomp implements the subset of the STOMP 1.2 text framing used by
// the snapshot server: frame parsing, multi-frame payload splitting and encoding.
package stomp

import (
	"bytes"
	"errors"
	"strings"
)

type Command string

const (
	CommandConnect     Command = "CONNECT"
	CommandStomp       Command = "STOMP"
	CommandConnected   Command = "CONNECTED"
	CommandSubscribe   Command = "SUBSCRIBE"
	CommandUnsubscribe Command = "UNSUBSCRIBE"
	CommandSend        Command = "SEND"
	CommandMessage     Command = "MESSAGE"
	CommandDisconnect  Command = "DISCONNECT"
)

// Known reports whether c is one of the commands this package understands.
func (c Command) Known() bool {
	switch c {
	case CommandConnect, CommandStomp, CommandConnected, CommandSubscribe,
		CommandUnsubscribe, CommandSend, CommandMessage, CommandDisconnect:
		return true
	}
	return false
}

// Well-known header names.
const (
	HeaderID           = "id"
	HeaderDestination  = "destination"
	HeaderAck          = "ack"
	HeaderSubscription = "subscription"
	HeaderMessageID    = "message-id"
	HeaderContentType  = "content-type"
	HeaderVersion      = "version"
	HeaderSession      = "session"
	HeaderServer       = "server"
	HeaderHeartBeat    = "heart-beat"
)

const terminator = 0x00

var ErrMalformedFrame = errors.New("malformed frame")

// Header is a single key/value pair.
type Header struct {
	Key   string
	Value string
}

// Frame is one STOMP frame. Headers keep insertion order for encoding.
type Frame struct {
	Command Command
	Headers []Header
	Body    []byte
}

func NewFrame(cmd Command, headers ...Header) *Frame {
	return &Frame{Command: cmd, Headers: headers}
}

// Get returns the first value stored for key.
func (f *Frame) Get(key string) (string, bool) {
	for _, h := range f.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// Value returns the first value stored for key, or "" when absent.
func (f *Frame) Value(key string) string {
	v, _ := f.Get(key)
	return v
}

// Set appends a header. Existing entries with the same key are left alone
// since lookups return the first match.
func (f *Frame) Set(key, value string) *Frame {
	f.Headers = append(f.Headers, Header{Key: key, Value: value})
	return f
}

// HeaderMap flattens the headers, keeping the last value for duplicate keys.
func (f *Frame) HeaderMap() map[string]string {
	m := make(map[string]string, len(f.Headers))
	for _, h := range f.Headers {
		m[h.Key] = h.Value
	}
	return m
}

// Encode serializes the frame as COMMAND\n(key:value\n)*\nBODY\0.
func (f *Frame) Encode() []byte {
	size := len(f.Command) + len(f.Body) + 3
	for _, h := range f.Headers {
		size += len(h.Key) + len(h.Value) + 2
	}

	var buf bytes.Buffer
	buf.Grow(size)
	buf.WriteString(string(f.Command))
	buf.WriteByte('\n')
	for _, h := range f.Headers {
		buf.WriteString(h.Key)
		buf.WriteByte(':')
		buf.WriteString(h.Value)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(terminator)
	return buf.Bytes()
}

// Parse splits a transport payload on NUL terminators and decodes every
// non-blank fragment. Malformed fragments are reported in errs and skipped.
func Parse(payload []byte) (frames []*Frame, errs []error) {
	for _, fragment := range bytes.Split(payload, []byte{terminator}) {
		if len(bytes.TrimSpace(fragment)) == 0 {
			continue
		}
		frame, err := decode(fragment)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		frames = append(frames, frame)
	}
	return frames, errs
}

func decode(fragment []byte) (*Frame, error) {
	// Heart-beat EOLs may precede the command line.
	fragment = bytes.TrimLeft(fragment, "\r\n")

	head, body, _ := bytes.Cut(fragment, []byte("\n\n"))
	if crlfHead, crlfBody, ok := bytes.Cut(fragment, []byte("\r\n\r\n")); ok && len(crlfHead) < len(head) {
		head, body = crlfHead, crlfBody
	}

	lines := strings.Split(string(head), "\n")
	command := strings.TrimSpace(lines[0])
	if command == "" || strings.ContainsRune(command, ':') {
		return nil, ErrMalformedFrame
	}

	frame := &Frame{Command: Command(command)}
	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		key, value, _ := strings.Cut(line, ":")
		if key == "" {
			continue
		}
		frame.Headers = append(frame.Headers, Header{Key: key, Value: value})
	}

	if len(body) > 0 {
		frame.Body = bytes.Clone(body)
	}
	return frame, nil
}
