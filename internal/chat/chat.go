// Package chat holds the transport-neutral message shapes exchanged between
// the router and the messaging platform adapter.
package chat

import "context"

// Inbound is one command or button press from a user.
type Inbound struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	IsGroup   bool

	// Command is set for text commands, without the leading slash.
	Command string
	Args    string

	// Callback is set for button presses.
	Callback   string
	CallbackID string
}

func (in Inbound) IsCallback() bool { return in.Callback != "" }

type Button struct {
	Text string
	Data string
}

type Image struct {
	Name    string
	PNG     []byte
	Caption string
}

// Reply is one outbound message. Images are sent as separate photos after Text.
type Reply struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
	Images  []Image

	// LeaveChat makes the adapter leave ChatID once the reply is delivered.
	LeaveChat bool
}

// Sender delivers replies outside of a request cycle, e.g. deferred bet results.
type Sender interface {
	Send(ctx context.Context, reply Reply) error
}

// Menu lays buttons out one per row.
func Menu(buttons ...Button) [][]Button {
	rows := make([][]Button, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []Button{b})
	}
	return rows
}
