package update

import (
	"log"
	"sync/atomic"
)

// DeliveryMsg carries a reminder from the timer goroutine into the tea loop.
type DeliveryMsg struct {
	SessionID string
	Text      string
}

// ChannelGateway hands reminders to the UI through a buffered channel. Deliver
// never blocks; when the buffer is full the reminder is dropped and logged.
type ChannelGateway struct {
	ch      chan DeliveryMsg
	dropped atomic.Uint64
}

func NewChannelGateway(buffer int) *ChannelGateway {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelGateway{ch: make(chan DeliveryMsg, buffer)}
}

func (g *ChannelGateway) Deliver(sessionID, text string) {
	select {
	case g.ch <- DeliveryMsg{SessionID: sessionID, Text: text}:
	default:
		g.dropped.Add(1)
		log.Printf("update: gateway buffer full, dropped reminder for session %s", sessionID)
	}
}

func (g *ChannelGateway) C() <-chan DeliveryMsg {
	return g.ch
}

func (g *ChannelGateway) Dropped() uint64 {
	return g.dropped.Load()
}
