package services

// Notifier receives platform updates. Implementations must not block the caller.
type Notifier interface {
	Publish(scope, action, actorRole string)
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, string, string) {}

func orNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
