package history

import "time"

// Entry is one executed input line.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Line     string    `json:"line"`             // trimmed input line
	Stages   []string  `json:"stages"`           // command names in order
	Failed   []string  `json:"failed,omitempty"` // stages that could not run
	Exit     bool      `json:"exit,omitempty"`   // the line ran exit
	ExitCode int       `json:"exit_code"`        // last waited child, 0 if none
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"` // working directory after the line ran
	Hash     string    `json:"hash"`
}

// Record carries what the shell knows about a finished line.
type Record struct {
	Line     string
	Stages   []string
	Failed   []string
	Exit     bool
	ExitCode int
	Duration time.Duration
	Cwd      string
}
