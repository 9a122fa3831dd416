package batch

// Progress is a snapshot taken after a unit settles.
type Progress struct {
	Requested int
	Completed int
	Succeeded int
}

func (p Progress) Failed() int {
	return p.Completed - p.Succeeded
}

func (p Progress) Done() bool {
	return p.Completed >= p.Requested
}

// ProgressFunc receives snapshots one at a time, never concurrently.
type ProgressFunc func(Progress)
