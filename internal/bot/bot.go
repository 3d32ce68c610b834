// Package bot connects the conversation router to Telegram.
package bot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"trendbet-bot/internal/chat"
)

type Router interface {
	Handle(ctx context.Context, in chat.Inbound) []chat.Reply
}

type Bot struct {
	Instance *telego.Bot
	Router   Router
	Log      *zap.Logger
}

func NewBot(token string, router Router, log *zap.Logger) (*Bot, error) {
	tgBot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		Instance: tgBot,
		Router:   router,
		Log:      log,
	}, nil
}

// Start long-polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.Instance.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.Instance, updates)
	if err != nil {
		return fmt.Errorf("create bot handler: %w", err)
	}

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		in, ok := inboundFromMessage(update.Message)
		if !ok {
			return nil
		}
		b.dispatch(ctx.Context(), in)
		return nil
	}, th.AnyCommand())

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		if err := ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID)); err != nil {
			b.Log.Debug("answer callback failed", zap.Error(err))
		}
		b.dispatch(ctx.Context(), inboundFromCallback(callback))
		return nil
	}, th.AnyCallbackQuery())

	b.Log.Info("telegram bot started")
	return handler.Start()
}

func (b *Bot) dispatch(ctx context.Context, in chat.Inbound) {
	for _, reply := range b.Router.Handle(ctx, in) {
		if err := b.Send(ctx, reply); err != nil {
			b.Log.Warn("send reply failed", zap.Int64("chat_id", reply.ChatID), zap.Error(err))
		}
	}
}

// Send delivers one reply: its text with any buttons first, then each image.
func (b *Bot) Send(ctx context.Context, reply chat.Reply) error {
	if reply.Text != "" {
		msg := tu.Message(tu.ID(reply.ChatID), reply.Text)
		if keyboard := inlineKeyboard(reply.Buttons); keyboard != nil {
			msg = msg.WithReplyMarkup(keyboard)
		}
		if _, err := b.Instance.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}

	for _, img := range reply.Images {
		photo := tu.Photo(tu.ID(reply.ChatID), tu.File(tu.NameReader(bytes.NewReader(img.PNG), img.Name)))
		if img.Caption != "" {
			photo = photo.WithCaption(img.Caption)
		}
		if _, err := b.Instance.SendPhoto(ctx, photo); err != nil {
			return fmt.Errorf("send photo %s: %w", img.Name, err)
		}
	}

	if reply.LeaveChat {
		if err := b.Instance.LeaveChat(ctx, &telego.LeaveChatParams{ChatID: tu.ID(reply.ChatID)}); err != nil {
			return fmt.Errorf("leave chat: %w", err)
		}
		b.Log.Info("left chat", zap.Int64("chat_id", reply.ChatID))
	}
	return nil
}
