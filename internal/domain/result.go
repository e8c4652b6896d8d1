package domain

import "time"

// Mode selects the transfer strategy.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeBulk       Mode = "bulk"
)

// ModeFor returns the mode selected by the bulk switch.
func ModeFor(bulk bool) Mode {
	if bulk {
		return ModeBulk
	}
	return ModeSequential
}

// Outcome is the coarse result of a run as seen by the caller.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Result summarizes one transfer run.
type Result struct {
	Outcome Outcome
	Mode    Mode

	// Sent is the number of files confirmed by the receiver
	Sent int

	// Duplicates is the number of files skipped as already sent
	Duplicates int

	// Skipped is the number of files that could not be read
	Skipped int

	// RolledBack is the number of tentative records deleted after a failed bulk send
	RolledBack int

	// FolderMissing is set when the watched folder did not exist
	FolderMissing bool

	// Err holds the failure cause when Outcome is OutcomeFailed
	Err error
}

// Succeeded reports whether the run ended successfully.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// RunReport is the persisted summary of the last run.
type RunReport struct {
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Mode          Mode      `json:"mode"`
	Outcome       Outcome   `json:"outcome"`
	Sent          int       `json:"sent"`
	Duplicates    int       `json:"duplicates"`
	Skipped       int       `json:"skipped"`
	RolledBack    int       `json:"rolled_back"`
	FolderMissing bool      `json:"folder_missing"`
	Error         string    `json:"error,omitempty"`
}

// IsEmpty returns true if no run has been recorded yet.
func (r RunReport) IsEmpty() bool {
	return r.StartedAt.IsZero()
}

// NewRunReport builds a report from a finished run.
func NewRunReport(res Result, startedAt, finishedAt time.Time) RunReport {
	rep := RunReport{
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
		Mode:          res.Mode,
		Outcome:       res.Outcome,
		Sent:          res.Sent,
		Duplicates:    res.Duplicates,
		Skipped:       res.Skipped,
		RolledBack:    res.RolledBack,
		FolderMissing: res.FolderMissing,
	}
	if res.Err != nil {
		rep.Error = res.Err.Error()
	}
	return rep
}
