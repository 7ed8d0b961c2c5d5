package parser

import (
	"regexp"
	"strings"
)

// ParsedTask represents a task parsed from a one-line quick add
type ParsedTask struct {
	Title       string
	Description string
	Status      string
	Errors      []string
}

var (
	statusRegex = regexp.MustCompile(`(?:^|\s)(?:\+|status:)([A-Za-z_-]+)`)
)

// ParseTitle extracts metadata from a quick add line.
// Syntax: "Task title +status // description", where status may also be
// written status:wip. Everything after the first "//" is the description.
func ParseTitle(input string) ParsedTask {
	result := ParsedTask{
		Errors: []string{},
	}

	// Split off the description
	if idx := strings.Index(input, "//"); idx >= 0 {
		result.Description = strings.TrimSpace(input[idx+2:])
		input = input[:idx]
	}

	// Extract status (+wip, status:done)
	matches := statusRegex.FindStringSubmatch(input)
	if len(matches) > 1 {
		status, err := ParseStatus(matches[1])
		if err != nil {
			result.Errors = append(result.Errors, "Invalid status '"+matches[1]+"'. Use: pending, in_progress or done")
		} else {
			result.Status = string(status)
		}
		// Remove from title
		input = statusRegex.ReplaceAllString(input, " ")
	}

	// Clean up the title (remove extra spaces)
	result.Title = strings.Join(strings.Fields(input), " ")

	return result
}
