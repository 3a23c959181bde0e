// pkg/loader/metrics.go

package loader

import "time"

// Outcome of a fetch, as reported to Metrics.
const (
	OutcomeLoaded    = "loaded"
	OutcomeErrored   = "errored"
	OutcomeCancelled = "cancelled"
	OutcomeDropped   = "dropped" // answered after its chunk was cancelled
)

// Metrics receives loader activity. A nil Metrics costs nothing.
type Metrics interface {
	ObservePass()
	ObserveFetch(outcome string, d time.Duration)
	SetResident(chunks int)
	SetInFlight(chunks int)
}
