package controller

import "sync/atomic"

// Stats is a snapshot of the controller's message counters.
type Stats struct {
	Received         int64 `json:"received"`
	CommandsApplied  int64 `json:"commands_applied"`
	CommandsRejected int64 `json:"commands_rejected"`
	ReadingsStored   int64 `json:"readings_stored"`
	ReadingsRejected int64 `json:"readings_rejected"`
	StoreFailures    int64 `json:"store_failures"`
	Alerts           int64 `json:"alerts"`
	Corrections      int64 `json:"corrections"`
	PublishFailures  int64 `json:"publish_failures"`
	Unrouted         int64 `json:"unrouted"`
}

type counters struct {
	received         atomic.Int64
	commandsApplied  atomic.Int64
	commandsRejected atomic.Int64
	readingsStored   atomic.Int64
	readingsRejected atomic.Int64
	storeFailures    atomic.Int64
	alerts           atomic.Int64
	corrections      atomic.Int64
	publishFailures  atomic.Int64
	unrouted         atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Received:         c.received.Load(),
		CommandsApplied:  c.commandsApplied.Load(),
		CommandsRejected: c.commandsRejected.Load(),
		ReadingsStored:   c.readingsStored.Load(),
		ReadingsRejected: c.readingsRejected.Load(),
		StoreFailures:    c.storeFailures.Load(),
		Alerts:           c.alerts.Load(),
		Corrections:      c.corrections.Load(),
		PublishFailures:  c.publishFailures.Load(),
		Unrouted:         c.unrouted.Load(),
	}
}
