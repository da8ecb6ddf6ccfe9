package telnet

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// Telnet command bytes (RFC 854) and the options the lobby negotiates.
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

// MaxLineLength caps one line of trainer input.
const MaxLineLength = 512

// ErrLineTooLong is returned by ReadLine for input over MaxLineLength. The
// rest of the offending line is discarded.
var ErrLineTooLong = errors.New("telnet: input line too long")

// Conn is the console a human battler plays through. ReadLine strips Telnet
// commands and control characters; writes escape IAC and are serialized.
type Conn struct {
	raw    net.Conn
	in     *bufio.Reader
	wmu    sync.Mutex
	rdTime time.Duration
	wrTime time.Duration
}

// NewConn wraps raw. Zero timeouts disable the matching deadline.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{raw: raw, in: bufio.NewReaderSize(raw, 4096), rdTime: readTimeout, wrTime: writeTimeout}
}

// Negotiate offers to suppress go-ahead so prompts need no GA.
func (c *Conn) Negotiate() error {
	return c.send([]byte{IAC, WILL, OptSuppressGoAhead})
}

// Bind closes the connection once ctx is done, unblocking a pending
// ReadLine. The returned function detaches the binding.
func (c *Conn) Bind(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() { _ = c.raw.Close() })
}

// ReadLine returns the next line of input without its terminator. CR LF,
// CR NUL, bare CR and bare LF all end a line.
//
// Postcondition: the line holds no Telnet commands and no control bytes
// other than tab.
func (c *Conn) ReadLine() (string, error) {
	if c.rdTime > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.rdTime))
	}
	var line bytes.Buffer
	overflow := false
	for {
		b, err := c.in.ReadByte()
		if err != nil {
			return line.String(), err
		}
		switch {
		case b == IAC:
			lit, err := c.command()
			if err != nil {
				return line.String(), err
			}
			if !lit {
				continue
			}
		case b == '\r':
			if next, err := c.in.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = c.in.ReadByte()
			}
			fallthrough
		case b == '\n':
			if overflow {
				return "", ErrLineTooLong
			}
			return line.String(), nil
		case b < 32 && b != '\t':
			continue
		}
		if line.Len() >= MaxLineLength {
			overflow = true
			continue
		}
		line.WriteByte(b)
	}
}

// command consumes the rest of an IAC sequence. It reports true for an
// escaped data byte 255, which the caller keeps.
func (c *Conn) command() (literal bool, err error) {
	cmd, err := c.in.ReadByte()
	if err != nil {
		return false, err
	}
	switch cmd {
	case IAC:
		return true, nil
	case WILL, WONT, DO, DONT:
		_, err = c.in.ReadByte()
		return false, err
	case SB:
		for prev := byte(0); ; {
			b, err := c.in.ReadByte()
			if err != nil {
				return false, err
			}
			if prev == IAC && b == SE {
				return false, nil
			}
			prev = b
		}
	}
	return false, nil
}

// WriteLine sends text followed by CR LF.
func (c *Conn) WriteLine(text string) error {
	return c.send(append(escape(text), '\r', '\n'))
}

// WritePrompt sends text with no line ending.
func (c *Conn) WritePrompt(prompt string) error {
	return c.send(escape(prompt))
}

// Write sends data with IAC bytes escaped.
func (c *Conn) Write(data []byte) error {
	return c.send(escape(string(data)))
}

func (c *Conn) send(p []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.wrTime > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.wrTime))
	}
	if _, err := c.raw.Write(p); err != nil {
		return fmt.Errorf("telnet write: %w", err)
	}
	return nil
}

// escape doubles IAC so data is never read as a command.
func escape(s string) []byte {
	n := bytes.Count([]byte(s), []byte{IAC})
	out := make([]byte, 0, len(s)+n+2)
	for i := 0; i < len(s); i++ {
		out = append(out, s[i])
		if s[i] == IAC {
			out = append(out, IAC)
		}
	}
	return out
}

// Close hangs up.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the client's address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
