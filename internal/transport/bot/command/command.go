// Package command splits chat messages into a slash command and its arguments.
package command

import "strings"

// Command is a parsed "/name@bot args" message.
type Command struct {
	Name string
	Args string
}

// Parse returns ok=false when text is not a command. The command name is
// lower-cased and an "@botname" suffix is dropped.
func Parse(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	name, args, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexAny(name, "\n\t"); i >= 0 {
		args = name[i+1:] + " " + args
		name = name[:i]
	}
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}

	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}, true
}

// SplitTwo splits args on the first run of whitespace, like split(maxsplit=1).
// ok is false unless both parts are present.
func SplitTwo(args string) (first, rest string, ok bool) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", "", false
	}
	first = fields[0]
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(args), first))

	return first, rest, true
}
