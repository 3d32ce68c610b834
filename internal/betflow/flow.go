// Package betflow implements the bet placement state machine: choose chain,
// choose coin, choose direction, then placement and resolution.
package betflow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"trendbet-bot/internal/models"
)

type Stage int

const (
	StageChooseChain Stage = iota
	StageChooseCoin
	StageChooseDirection
	StagePlaced
)

func (s Stage) String() string {
	switch s {
	case StageChooseChain:
		return "choose_chain"
	case StageChooseCoin:
		return "choose_coin"
	case StageChooseDirection:
		return "choose_direction"
	case StagePlaced:
		return "placed"
	}
	return "stage(" + strconv.Itoa(int(s)) + ")"
}

// Flow is the isolated state cell of one user's betting session. It is owned
// by exactly one user and only ever touched while that user's events are
// being handled.
type Flow struct {
	ID          string
	UserID      int64
	ChatID      int64
	DisplayName string
	Stage       Stage
	Chain       models.Chain
	Candidates  []models.TokenSnapshot
	Selected    *models.TokenSnapshot
	StartedAt   time.Time

	// Menu numbers the coin menus shown in this flow. Coin buttons carry it
	// so a button from an earlier candidate list cannot select from the
	// current one.
	Menu int
}

// Done reports whether the flow reached its terminal stage.
func (f *Flow) Done() bool { return f.Stage == StagePlaced }

type EventKind int

const (
	EventChain EventKind = iota + 1
	EventCoin
	EventDirection
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventChain:
		return "chain"
	case EventCoin:
		return "coin"
	case EventDirection:
		return "dir"
	case EventCancel:
		return "cancel"
	}
	return "event(" + strconv.Itoa(int(k)) + ")"
}

type Event struct {
	Kind      EventKind
	Chain     models.Chain
	Menu      int
	CoinIndex int
	Direction models.Direction
}

const callbackPrefix = "bet"

// Callback data layout: bet:<flowID>:<kind>[:<value>]. Coin buttons use
// bet:<flowID>:coin:<menu>:<index>.

func ChainCallback(flowID string, chain models.Chain) string {
	return strings.Join([]string{callbackPrefix, flowID, EventChain.String(), string(chain)}, ":")
}

func CoinCallback(flowID string, menu, index int) string {
	return strings.Join([]string{callbackPrefix, flowID, EventCoin.String(), strconv.Itoa(menu), strconv.Itoa(index)}, ":")
}

func DirectionCallback(flowID string, d models.Direction) string {
	return strings.Join([]string{callbackPrefix, flowID, EventDirection.String(), string(d)}, ":")
}

func CancelCallback(flowID string) string {
	return strings.Join([]string{callbackPrefix, flowID, EventCancel.String()}, ":")
}

// IsCallback reports whether data belongs to a bet flow button.
func IsCallback(data string) bool {
	return strings.HasPrefix(data, callbackPrefix+":")
}

// ParseCallback decodes button data into the owning flow id and the event.
func ParseCallback(data string) (string, Event, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 3 || parts[0] != callbackPrefix || parts[1] == "" {
		return "", Event{}, fmt.Errorf("malformed bet callback %q", data)
	}
	flowID := parts[1]

	switch parts[2] {
	case EventCancel.String():
		if len(parts) != 3 {
			break
		}
		return flowID, Event{Kind: EventCancel}, nil
	case EventChain.String():
		if len(parts) != 4 {
			break
		}
		chain, err := models.ParseChain(parts[3])
		if err != nil {
			return "", Event{}, err
		}
		return flowID, Event{Kind: EventChain, Chain: chain}, nil
	case EventCoin.String():
		if len(parts) != 5 {
			break
		}
		menu, err := strconv.Atoi(parts[3])
		if err != nil || menu < 0 {
			return "", Event{}, fmt.Errorf("bad coin menu in %q", data)
		}
		idx, err := strconv.Atoi(parts[4])
		if err != nil || idx < 0 {
			return "", Event{}, fmt.Errorf("bad coin index in %q", data)
		}
		return flowID, Event{Kind: EventCoin, Menu: menu, CoinIndex: idx}, nil
	case EventDirection.String():
		if len(parts) != 4 {
			break
		}
		d, err := models.ParseDirection(parts[3])
		if err != nil {
			return "", Event{}, err
		}
		return flowID, Event{Kind: EventDirection, Direction: d}, nil
	}
	return "", Event{}, fmt.Errorf("malformed bet callback %q", data)
}
