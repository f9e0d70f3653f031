package notification

// Event names pushed to dashboard clients.
const (
	EventNewIncomingVehicle = "newIncomingVehicle"
	EventVehicleProcessed   = "vehicleProcessed"
	EventZoneUpdated        = "zoneUpdated"
	EventZoneCreated        = "zoneCreated"
	EventZoneDeleted        = "zoneDeleted"
)

// Publisher broadcasts dashboard events. Implementations must not block the
// caller; delivery is at-most-once and failures stay inside the publisher.
type Publisher interface {
	Publish(event string, payload any)
}

// Nop discards every event. Used in tests and when push is not configured.
type Nop struct{}

func (Nop) Publish(string, any) {}
