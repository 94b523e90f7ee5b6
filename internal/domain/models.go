package domain

import "time"

// RawEntry is the unmodified phone-number cell extracted from one
// spreadsheet row. Row is the 1-based row number in the source file,
// counting the header, so the first data row is 2.
type RawEntry struct {
	Raw string
	Row int
}

// CanonicalNumber is a phone number in full international format:
// a leading "+" followed by the country code and subscriber digits,
// free of formatting noise. Equality is value equality.
type CanonicalNumber string

// RejectionReason classifies why a raw entry cannot be processed
// automatically.
type RejectionReason string

const (
	ReasonContainsNonDigitCharacters RejectionReason = "contains_non_digit_characters"
	ReasonMissingCountryCode         RejectionReason = "missing_country_code"
	ReasonMalformedLength            RejectionReason = "malformed_length"
	ReasonAmbiguousLocalFormat       RejectionReason = "ambiguous_local_format"
)

// RejectedEntry pairs a raw entry with the reason it was rejected.
// Rejected entries are surfaced for manual follow-up, never retried.
type RejectedEntry struct {
	Entry  RawEntry
	Reason RejectionReason
}

// Rewrite records a trunk-prefix rewrite so the operator can audit
// which numbers were changed during canonicalization.
type Rewrite struct {
	Entry     RawEntry
	Canonical CanonicalNumber
}

// Batch is an ordered, fixed-size group of canonical numbers. Seq is
// 1-based and contiguous across a run; the final batch may hold fewer
// numbers than the configured size but is never empty.
type Batch struct {
	Seq     int
	Numbers []CanonicalNumber
}

// Outcome is the final fate of one valid number in a run.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// NumberResult records the outcome of one valid number. FailReason is
// set only for OutcomeFailed.
type NumberResult struct {
	Number     CanonicalNumber
	BatchSeq   int
	Outcome    Outcome
	FailReason string
}

// RunReport is the aggregate record of one run. It is built
// incrementally by the coordinator's single execution path and is
// read-only once the run ends.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	TotalEntries int
	Rejected     []RejectedEntry
	Rewritten    []Rewrite
	BatchCount   int
	Results      []NumberResult

	Halted     bool
	HaltReason string
}

// CountOutcome returns how many numbers finished with the given outcome.
func (r *RunReport) CountOutcome(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// ValidCount returns how many entries survived normalization.
func (r *RunReport) ValidCount() int {
	return len(r.Results)
}
