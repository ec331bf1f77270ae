package pipeline

import "strings"

// Parse splits line into stages on Separator and each stage into a command
// name and arguments on whitespace. A blank line yields nil. Stray
// separators produce stages with an empty name; they are kept so that the
// executor reports them like any other command it cannot start.
func Parse(line string) *Pipeline {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	parts := strings.Split(line, Separator)
	p := &Pipeline{
		Line:   line,
		Stages: make([]Stage, 0, len(parts)),
	}
	for _, part := range parts {
		p.Stages = append(p.Stages, parseStage(part))
	}
	return p
}

func parseStage(s string) Stage {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Stage{}
	}
	return Stage{
		Name: fields[0],
		Args: fields[1:],
	}
}
