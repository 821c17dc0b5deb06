package pubsub

import (
	"github.com/google/uuid"

	"github.com/rupaya/live/pkg/events"
)

// Listener receives every message delivered on the key it was subscribed to.
// Listeners run synchronously on the delivering goroutine and may call Subscribe
// or Unsubscribe themselves.
type Listener func(msg events.Message)

// ListenerID identifies one registration. Subscribe generates a fresh one per
// call; SubscribeWithID lets a caller register the same logical listener more
// than once and have it counted once.
type ListenerID string

// NewListenerID returns a random listener identity.
func NewListenerID() ListenerID {
	return ListenerID(uuid.NewString())
}

// ChannelState is the lifecycle state of the channel behind a key.
type ChannelState int

const (
	StateAbsent ChannelState = iota
	StateOpening
	StateOpen
	StateClosing
)

func (s ChannelState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Channel is one physical persistent connection bound to a key.
// Close must be safe to call more than once and from any goroutine.
type Channel interface {
	Send(data []byte) error
	Close() error
}

// ChannelHandler receives the lifecycle and data events of a Channel. A transport
// must deliver the events of one channel serially, in the order they happened;
// OnClose is the last event delivered.
type ChannelHandler interface {
	OnOpen()
	OnMessage(frame []byte)
	OnError(err error)
	OnClose()
}

// ConnectionFactory opens channels. Open must not block on network I/O: it starts
// establishing the connection and reports the outcome through the handler.
type ConnectionFactory interface {
	Open(key, credential string, h ChannelHandler) (Channel, error)
}

// CredentialSource supplies the credential used to open channels.
type CredentialSource interface {
	Credential() (string, error)
}

// NotificationSink receives summaries of notification-worthy messages.
type NotificationSink interface {
	Notify(message string, severity events.Severity)
}

// StateObserver is told about every channel state transition.
type StateObserver func(key string, from, to ChannelState)
