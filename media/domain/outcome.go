package domain

// SkipReason explains why a record was left untouched.
type SkipReason string

const (
	SkipAlreadyHasAlt SkipReason = "already-has-alt"
	SkipUnresolvable  SkipReason = "unresolvable-filename"
	SkipNotAnImage    SkipReason = "not-an-image"
	SkipForbidden     SkipReason = "forbidden"
	SkipNotFound      SkipReason = "not-found"
)

// SyncOutcome aggregates the result of one sync invocation. It is never persisted.
type SyncOutcome struct {
	Attempted int
	Updated   int
	Skipped   map[SkipReason]int
}

func NewSyncOutcome() SyncOutcome {
	return SyncOutcome{Skipped: make(map[SkipReason]int)}
}

// RecordUpdate counts a considered record whose alt text was written.
func (o *SyncOutcome) RecordUpdate() {
	o.Attempted++
	o.Updated++
}

// RecordSkip counts a considered record that was left untouched.
func (o *SyncOutcome) RecordSkip(reason SkipReason) {
	if o.Skipped == nil {
		o.Skipped = make(map[SkipReason]int)
	}
	o.Attempted++
	o.Skipped[reason]++
}

// SkippedTotal is the number of considered records that were not written.
func (o SyncOutcome) SkippedTotal() int {
	total := 0
	for _, n := range o.Skipped {
		total += n
	}
	return total
}

// Merge adds other's counters into o.
func (o *SyncOutcome) Merge(other SyncOutcome) {
	if o.Skipped == nil {
		o.Skipped = make(map[SkipReason]int)
	}
	o.Attempted += other.Attempted
	o.Updated += other.Updated
	for reason, n := range other.Skipped {
		o.Skipped[reason] += n
	}
}
