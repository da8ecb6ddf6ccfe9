package participant

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console is the line-oriented terminal a human plays through.
// telnet.Conn implements it.
type Console interface {
	WriteLine(text string) error
	WritePrompt(prompt string) error
	ReadLine() (string, error)
}

// StdioConsole reads lines from r and writes to w.
type StdioConsole struct {
	mu  sync.Mutex
	in  *bufio.Scanner
	out io.Writer
}

// NewStdioConsole creates a console over r and w, such as os.Stdin and os.Stdout.
func NewStdioConsole(r io.Reader, w io.Writer) *StdioConsole {
	return &StdioConsole{in: bufio.NewScanner(r), out: w}
}

// WriteLine writes text followed by a newline.
func (c *StdioConsole) WriteLine(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, text)
	return err
}

// WritePrompt writes prompt without a newline.
func (c *StdioConsole) WritePrompt(prompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, prompt)
	return err
}

// ReadLine returns the next line without its terminator. It returns io.EOF
// once the input is exhausted.
func (c *StdioConsole) ReadLine() (string, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(c.in.Text(), "\r"), nil
}

// Command is the parsed form of one console line.
type Command struct {
	// Name is the first word, lowercased.
	Name string
	// Args are the remaining words.
	Args []string
}

// Parse splits a console line into a command and its arguments.
//
// Postcondition: if line is blank, Name is empty.
func Parse(line string) Command {
	words := strings.Fields(line)
	if len(words) == 0 {
		return Command{}
	}
	return Command{Name: strings.ToLower(words[0]), Args: words[1:]}
}

// verb is one console command and its aliases.
type verb struct {
	name    string
	aliases []string
	help    string
}

// Console verbs.
const (
	verbFight  = "fight"
	verbSwitch = "switch"
	verbItem   = "item"
	verbBall   = "ball"
	verbRun    = "run"
	verbParty  = "party"
	verbBag    = "bag"
	verbHelp   = "help"
)

var verbs = []verb{
	{verbFight, []string{"f", "attack", "move"}, "fight [n|move]  use a move; lists moves without an argument"},
	{verbSwitch, []string{"s", "go"}, "switch <n|name> send out another party member"},
	{verbItem, []string{"i", "use"}, "item <name> [member] [move]  use an item"},
	{verbBall, []string{"throw"}, "ball <name>     throw a ball at the wild foe"},
	{verbRun, []string{"r", "flee"}, "run             try to escape"},
	{verbParty, []string{"p", "team"}, "party           list your party"},
	{verbBag, []string{"b", "items"}, "bag             list usable items"},
	{verbHelp, []string{"h", "?"}, "help            show this list"},
}

// errUnknownVerb is reported for unrecognised input.
var errUnknownVerb = errors.New("unknown command; type help")

// resolve maps a command name or alias to its canonical verb.
func resolve(name string) (string, bool) {
	for _, v := range verbs {
		if v.name == name {
			return v.name, true
		}
		for _, a := range v.aliases {
			if a == name {
				return v.name, true
			}
		}
	}
	return "", false
}
