package messaging

import "time"

// EpisodeResult is one finished episode as reported by an experiment.
type EpisodeResult struct {
	RunID     string
	Episode   int
	Steps     int
	Returns   map[string]float64 // summed reward per agent
	Timestamp time.Time
}

// Broker fans episode results out to registered observers.
type Broker interface {
	// Publish delivers a result to every subscriber.
	Publish(res EpisodeResult) error
	// Subscribe registers an observer to receive results.
	Subscribe(id string, ch chan<- EpisodeResult) error
	// Unsubscribe removes an observer's subscription.
	Unsubscribe(id string) error
}
