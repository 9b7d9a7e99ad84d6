package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"estatecrm/internal/models"
)

// TelegramNotifier пушит события по лидам в рабочий чат.
// Без токена/чата все вызовы — no-op (dev-режим).
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(botToken string, chatID int64) *TelegramNotifier {
	if botToken == "" || chatID == 0 {
		log.Printf("[tg] token or chat id empty, notifications disabled")
		return &TelegramNotifier{}
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[tg] bot init failed, notifications disabled: %v", err)
		return &TelegramNotifier{}
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (t *TelegramNotifier) send(text string) error {
	if t == nil || t.bot == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (t *TelegramNotifier) NotifyNewLead(lead *models.Lead) error {
	return t.send(fmt.Sprintf("🆕 Новый лид: <b>%s</b>\nТелефон: %s\nГород: %s\nИсточник: %s",
		lead.Name, lead.Phone, lead.City, lead.Source))
}

func (t *TelegramNotifier) NotifyAssignment(lead *models.Lead, member *models.TeamMember) error {
	return t.send(fmt.Sprintf("👤 Лид <b>%s</b> назначен агенту <b>%s</b>", lead.Name, member.Name))
}
