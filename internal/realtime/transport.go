package realtime

// Handler consumes a raw push payload.
type Handler func(data []byte)

// Subscription is a live push subscription. Unsubscribing stops new delivery;
// it never revokes already-applied state.
type Subscription interface {
	Unsubscribe() error
}

// Transport is the injected push-channel handle. The sync layer owns no
// connection state of its own, so event application stays testable without a
// broker.
type Transport interface {
	Subscribe(subject string, handler Handler) (Subscription, error)
	Publish(subject string, data []byte) error
}
