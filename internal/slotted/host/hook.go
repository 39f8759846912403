package host

// FrameHook runs once per engine frame for an instance.
type FrameHook func(Agent)

// StartHook runs when an instance starts.
type StartHook func(Agent)

// CommandHook runs a named animation command script.
type CommandHook func(Agent)

// StatusHook runs one line of a status and returns the engine result value.
type StatusHook func(Agent) int64

// CommandCategory is one of the four parallel command streams.
type CommandCategory int

const (
	CommandGame CommandCategory = iota
	CommandEffect
	CommandSound
	CommandExpression
)

// CommandCategories lists every category in dispatch order.
var CommandCategories = []CommandCategory{CommandGame, CommandEffect, CommandSound, CommandExpression}

// Prefix is the name prefix scripts of the category carry, without the
// trailing underscore.
func (c CommandCategory) Prefix() string {
	switch c {
	case CommandGame:
		return "game"
	case CommandEffect:
		return "effect"
	case CommandSound:
		return "sound"
	case CommandExpression:
		return "expression"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (c CommandCategory) String() string {
	if p := c.Prefix(); p != "" {
		return p
	}
	return "unknown"
}

// SupportsCategory reports whether instances of category run command
// scripts of cmd. Weapons have no expression stream.
func SupportsCategory(category Category, cmd CommandCategory) bool {
	if category == CategoryWeapon {
		return cmd != CommandExpression
	}
	return true
}

// StatusLine is the lifecycle line a status function occupies.
type StatusLine int

const (
	StatusPre StatusLine = iota
	StatusMain
	StatusEnd
	StatusInit
	StatusExec
	StatusExit
)

// String implements fmt.Stringer.
func (l StatusLine) String() string {
	switch l {
	case StatusPre:
		return "pre"
	case StatusMain:
		return "main"
	case StatusEnd:
		return "end"
	case StatusInit:
		return "init"
	case StatusExec:
		return "exec"
	case StatusExit:
		return "exit"
	default:
		return "unknown"
	}
}

// ParseStatusLine maps a line name back to its StatusLine.
func ParseStatusLine(name string) (StatusLine, bool) {
	for line := StatusPre; line <= StatusExit; line++ {
		if line.String() == name {
			return line, true
		}
	}
	return 0, false
}
