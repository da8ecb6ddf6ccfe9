package testutil

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/monbattle/internal/frontend/telnet"
)

// ExpectTimeout bounds each TelnetClient.Expect call.
const ExpectTimeout = 2 * time.Second

// TelnetClient plays the lobby like a human trainer would. Output is kept as
// plain text: Telnet commands and ANSI colors are removed before matching.
type TelnetClient struct {
	t        *testing.T
	conn     net.Conn
	raw      strings.Builder
	consumed int
	iac      int
}

// NewTelnetClient dials addr and closes the connection when the test ends.
//
// Precondition: a server is listening on addr.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &TelnetClient{t: t, conn: conn}
}

// Expect reads until substr appears in the unread output and returns that
// output through the match. Text after the match stays unread.
//
// Postcondition: fails the test if substr does not arrive within ExpectTimeout.
func (c *TelnetClient) Expect(substr string) string {
	c.t.Helper()
	deadline := time.Now().Add(ExpectTimeout)
	buf := make([]byte, 1024)
	for {
		unread := c.Transcript()[c.consumed:]
		if i := strings.Index(unread, substr); i >= 0 {
			c.consumed += i + len(substr)
			return unread[:i+len(substr)]
		}
		_ = c.conn.SetReadDeadline(deadline)
		n, err := c.conn.Read(buf)
		c.raw.WriteString(c.filter(buf[:n]))
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				c.t.Fatalf("waiting for %q: timed out, unread %q", substr, unread)
			}
			c.t.Fatalf("waiting for %q: %v, unread %q", substr, err, unread)
		}
	}
}

// filter drops Telnet command sequences, which may span reads.
func (c *TelnetClient) filter(p []byte) string {
	var b strings.Builder
	for _, ch := range p {
		switch {
		case c.iac == 1 && ch >= telnet.WILL && ch <= telnet.DONT:
			c.iac = 2
		case c.iac > 0:
			c.iac = 0
		case ch == telnet.IAC:
			c.iac = 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// Send writes one line of input.
func (c *TelnetClient) Send(line string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", line); err != nil {
		c.t.Fatalf("sending %q: %v", line, err)
	}
}

// Login answers the lobby's name and team prompts.
//
// Postcondition: the lobby has greeted name and is ready for commands.
func (c *TelnetClient) Login(name, team string) {
	c.t.Helper()
	c.Expect("What is your name?")
	c.Send(name)
	c.Expect("Team: ")
	c.Send(team)
	c.Expect("Good luck, " + name + "!")
}

// Transcript returns all plain text received so far. Colors are stripped
// here rather than per read since an escape sequence may straddle reads.
func (c *TelnetClient) Transcript() string {
	return telnet.StripANSI(c.raw.String())
}

// Close hangs up.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
