package dht

// Outcome tells the caller what an insert did.
type Outcome int

const (
	// Inserted means the contact was new and was appended.
	Inserted Outcome = iota
	// Updated means the contact was known; its record was replaced and moved
	// to the most-recently-seen end.
	Updated
	// Full means the bucket had no room. Nothing changed; the caller may
	// probe InsertOutcome.Candidate and call Replace if it is dead.
	Full
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// InsertOutcome is the result of an insert. Candidate is set only for Full
// and is the least-recently-seen contact of the bucket.
type InsertOutcome struct {
	Outcome   Outcome
	Candidate Contact
}
