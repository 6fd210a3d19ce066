package sandbox

import (
	"fmt"

	"gopkg.in/telebot.v3"
)

// Notifier delivers a code to a GIE contact
type Notifier interface {
	SendCode(chatID int64, gieName, code string) error
}

// TelebotNotifier implements Notifier using the gopkg.in/telebot.v3 library.
type TelebotNotifier struct {
	bot *telebot.Bot
}

func NewTelebotNotifier(b *telebot.Bot) *TelebotNotifier {
	return &TelebotNotifier{bot: b}
}

// SendCode sends the code as a direct message
func (n *TelebotNotifier) SendCode(chatID int64, gieName, code string) error {
	text := fmt.Sprintf("🔐 %s\nYour wallet access code is <b>%s</b>. Do not share it.", gieName, code)
	recipient := &telebot.User{ID: chatID}
	_, err := n.bot.Send(recipient, text, &telebot.SendOptions{ParseMode: telebot.ModeHTML})
	return err
}
