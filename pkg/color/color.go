// Package color holds the terminal styles of the CLI. fatih/color turns them
// off for NO_COLOR and non-terminal output.
package color

import (
	"hash/fnv"

	"github.com/fatih/color"
)

var (
	Bold   = color.New(color.Bold).SprintFunc()
	Faint  = color.New(color.Faint).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
)

// Palette for user ids
var userColors = []*color.Color{
	color.New(color.FgHiRed),
	color.New(color.FgHiGreen),
	color.New(color.FgHiYellow),
	color.New(color.FgHiBlue),
	color.New(color.FgHiMagenta),
	color.New(color.FgHiCyan),
	color.New(color.FgBlue),
	color.New(color.FgMagenta),
}

// ForUser returns the same color for the same user id on every run.
func ForUser(userID string) *color.Color {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return userColors[h.Sum32()%uint32(len(userColors))]
}

// User formats a user id in its color, or "-" when there is none.
func User(userID string) string {
	if userID == "" {
		return "-"
	}
	return ForUser(userID).Sprint(userID)
}
