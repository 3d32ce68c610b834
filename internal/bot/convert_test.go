package bot

import (
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendbet-bot/internal/chat"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text    string
		command string
		args    string
		ok      bool
	}{
		{"/start", "start", "", true},
		{"/submitwallet 0xabc", "submitwallet", "0xabc", true},
		{"/placebet@trend_bot", "placebet", "", true},
		{"/prompt@trend_bot show me  sol coins ", "prompt", "show me  sol coins", true},
		{"/ETH", "ETH", "", true},
		{"hello", "", "", false},
		{"/", "", "", false},
		{"/@bot", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			command, args, ok := parseCommand(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.command, command)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestInboundFromMessage(t *testing.T) {
	msg := &telego.Message{
		Text: "/placebet",
		From: &telego.User{ID: 42, Username: "alice", FirstName: "Alice"},
		Chat: telego.Chat{ID: -100, Type: telego.ChatTypeSupergroup},
	}

	in, ok := inboundFromMessage(msg)
	require.True(t, ok)
	assert.Equal(t, chat.Inbound{
		UserID:    42,
		ChatID:    -100,
		Username:  "alice",
		FirstName: "Alice",
		IsGroup:   true,
		Command:   "placebet",
	}, in)

	msg.Chat = telego.Chat{ID: 42, Type: telego.ChatTypePrivate}
	in, ok = inboundFromMessage(msg)
	require.True(t, ok)
	assert.False(t, in.IsGroup)

	_, ok = inboundFromMessage(&telego.Message{Text: "/start"})
	assert.False(t, ok, "messages without a sender are ignored")

	_, ok = inboundFromMessage(nil)
	assert.False(t, ok)
}

func TestInboundFromCallbackWithoutMessage(t *testing.T) {
	in := inboundFromCallback(&telego.CallbackQuery{
		ID:   "cb-1",
		From: telego.User{ID: 7, FirstName: "Bob"},
		Data: "bet:abcd1234:cancel",
	})

	assert.True(t, in.IsCallback())
	assert.Equal(t, int64(7), in.UserID)
	assert.Equal(t, int64(7), in.ChatID)
	assert.Equal(t, "cb-1", in.CallbackID)
	assert.Equal(t, "bet:abcd1234:cancel", in.Callback)
}

func TestInlineKeyboard(t *testing.T) {
	assert.Nil(t, inlineKeyboard(nil))

	kb := inlineKeyboard(chat.Menu(
		chat.Button{Text: "Solana", Data: "bet:1:chain:Solana"},
		chat.Button{Text: "Cancel", Data: "bet:1:cancel"},
	))
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "Solana", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "bet:1:cancel", kb.InlineKeyboard[1][0].CallbackData)
}
