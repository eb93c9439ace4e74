package authstore

import (
	"context"
	"time"
)

// Notice describes a session that was found expired during navigation.
type Notice struct {
	ClientID  string
	Target    string
	ExpiredAt time.Time
	At        time.Time
}

// Notifier surfaces the one-time "session expired" message to the user.
type Notifier interface {
	SessionExpired(ctx context.Context, notice Notice)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(ctx context.Context, notice Notice)

func (f NotifierFunc) SessionExpired(ctx context.Context, notice Notice) {
	f(ctx, notice)
}

// NoOpNotifier drops notices.
type NoOpNotifier struct{}

func (NoOpNotifier) SessionExpired(context.Context, Notice) {}

// ChannelNotifier writes notices into a buffered channel, dropping them when
// the buffer is full.
type ChannelNotifier struct {
	notices chan Notice
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{notices: make(chan Notice, buffer)}
}

func (n *ChannelNotifier) SessionExpired(_ context.Context, notice Notice) {
	select {
	case n.notices <- notice:
	default:
	}
}

func (n *ChannelNotifier) Notices() <-chan Notice {
	return n.notices
}
