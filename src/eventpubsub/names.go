package eventpubsub

const (
	NewTickEvent = "new_tick_event"
)
