package bot

import (
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"trendbet-bot/internal/chat"
)

// parseCommand splits "/cmd@botname rest of text" into "cmd" and "rest of text".
func parseCommand(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	head, args, _ := strings.Cut(text[1:], " ")
	command, _, _ := strings.Cut(head, "@")
	if command == "" {
		return "", "", false
	}
	return command, strings.TrimSpace(args), true
}

func isGroupChat(c telego.Chat) bool {
	return c.Type == telego.ChatTypeGroup || c.Type == telego.ChatTypeSupergroup
}

func inboundFromMessage(msg *telego.Message) (chat.Inbound, bool) {
	if msg == nil || msg.From == nil {
		return chat.Inbound{}, false
	}
	command, args, ok := parseCommand(msg.Text)
	if !ok {
		return chat.Inbound{}, false
	}

	return chat.Inbound{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		IsGroup:   isGroupChat(msg.Chat),
		Command:   command,
		Args:      args,
	}, true
}

// inboundFromCallback answers in the chat that holds the pressed menu, or in
// the presser's private chat when that message is no longer available.
func inboundFromCallback(q *telego.CallbackQuery) chat.Inbound {
	in := chat.Inbound{
		UserID:     q.From.ID,
		ChatID:     q.From.ID,
		Username:   q.From.Username,
		FirstName:  q.From.FirstName,
		Callback:   q.Data,
		CallbackID: q.ID,
	}
	if q.Message != nil {
		c := q.Message.GetChat()
		in.ChatID = c.ID
		in.IsGroup = isGroupChat(c)
	}
	return in
}

func inlineKeyboard(rows [][]chat.Button) *telego.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]telego.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tu.InlineKeyboardButton(b.Text).WithCallbackData(b.Data))
		}
		out = append(out, tu.InlineKeyboardRow(buttons...))
	}
	return tu.InlineKeyboard(out...)
}
