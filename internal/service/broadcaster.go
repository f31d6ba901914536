package service

// Realtime event names published by the lifecycle service.
const (
	EventRequestUpdated = "request.updated"
	EventRequestDeleted = "request.deleted"
	EventProductUpdated = "product.updated"
)

// Broadcaster pushes a payload to every subscriber of a channel. Fire and
// forget: no acknowledgment, no durability — offline subscribers catch up via
// their next full read.
type Broadcaster interface {
	Publish(channel, event string, payload interface{})
}

// NopBroadcaster satisfies Broadcaster without a realtime transport attached.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(string, string, interface{}) {}
