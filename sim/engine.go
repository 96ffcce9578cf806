package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// An Engine is a unit that keeps the discrete event simulation running.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes all the events until the simulation finishes.
	Run() error

	// Pause will pause the simulation until Continue is called.
	Pause()

	// Continue resumes a paused simulation.
	Continue()
}
