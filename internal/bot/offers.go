package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-review/internal/assistant"
	"daily-review/internal/auth"
	"daily-review/internal/model"
	"daily-review/internal/service"
)

// Telegram rejects messages over 4096 characters.
const maxMessageRunes = 4000

func offerQuestionCount() int {
	total := 0
	for _, section := range service.OfferSections {
		total += len(section.Questions)
	}
	return total
}

func answeredCount(offer *model.Offer) int {
	n := 0
	for _, section := range service.OfferSections {
		for _, q := range section.Questions {
			if strings.TrimSpace(offer.Answers[q.ID]) != "" {
				n++
			}
		}
	}
	return n
}

func (b *Bot) handleOffer(ctx context.Context, msg *tgbotapi.Message, session *auth.Session) error {
	title := normalizeTitle(msg.CommandArguments())
	if title != "" {
		offer, err := b.offers.Start(ctx, session.UserID, title)
		if err != nil {
			return b.sendError(msg.Chat.ID, "Could not start the offer", err)
		}
		log.Printf("[info] offer started id=%s user=%s", offer.ID, session.UserID)
		return b.askOfferQuestion(msg.Chat.ID, msg.From.ID, offer)
	}

	return b.sendOfferList(ctx, msg.Chat.ID, session)
}

func (b *Bot) sendOfferList(ctx context.Context, chatID int64, session *auth.Session) error {
	offers, err := b.offers.List(ctx, session.UserID)
	if err != nil {
		return b.sendError(chatID, "Could not load offers", err)
	}
	if len(offers) == 0 {
		return b.sendText(chatID, "💼 No offers yet. Start one with /offer Title.")
	}

	total := offerQuestionCount()
	var sb strings.Builder
	sb.WriteString("💼 <b>Offers</b>\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(offers))
	for i, offer := range offers {
		drafted := ""
		if offer.Draft != "" {
			drafted = " · drafted"
		}
		sb.WriteString(fmt.Sprintf("%d. %s · %d/%d answered%s\n", i+1, escape(offer.Title), answeredCount(&offer), total, drafted))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d. ✏️ Continue", i+1), callbackData(cbOfferContinue, offer.ID)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d. ✨ Draft", i+1), callbackData(cbOfferDraft, offer.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", callbackData(cbDeleteOffer, offer.ID)),
		))
	}
	return b.sendWithReplyMarkup(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) continueOffer(ctx context.Context, chatID, userID int64, session *auth.Session, offerID string) error {
	offer, err := b.offers.Get(ctx, session.UserID, offerID)
	if err != nil {
		return b.sendError(chatID, "Could not open the offer", err)
	}
	return b.askOfferQuestion(chatID, userID, offer)
}

func (b *Bot) askOfferQuestion(chatID, userID int64, offer *model.Offer) error {
	section, q, ok := service.NextQuestion(offer)
	if !ok {
		b.clearConversation(userID)
		return b.sendWithReplyMarkup(chatID,
			fmt.Sprintf("🎉 All questions for <b>%s</b> answered.", escape(offer.Title)),
			tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✨ Draft the offer", callbackData(cbOfferDraft, offer.ID)),
			)))
	}

	b.setConversation(userID, &conversationState{stage: stageOfferAnswer, offerID: offer.ID})
	text := fmt.Sprintf("💼 <b>%s</b> · %d/%d\n\n%s\n<i>e.g. %s</i>",
		escape(section.Title), answeredCount(offer)+1, offerQuestionCount(), escape(q.Prompt), escape(q.Example))
	return b.sendWithReplyMarkup(chatID, text, cancelKeyboard())
}

func (b *Bot) onOfferAnswer(ctx context.Context, msg *tgbotapi.Message, session *auth.Session, state *conversationState, text string) error {
	offer, err := b.offers.Answer(ctx, session.UserID, state.offerID, text)
	if err != nil {
		if errors.Is(err, model.ErrValidationFailed) {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Please type an answer, or cancel to stop for now.", cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.sendError(msg.Chat.ID, "Could not save the answer", err)
	}
	return b.askOfferQuestion(msg.Chat.ID, msg.From.ID, offer)
}

func (b *Bot) draftOffer(ctx context.Context, chatID int64, session *auth.Session, offerID string) error {
	if err := b.sendText(chatID, "✍️ Drafting your offer…"); err != nil {
		return err
	}
	draft, err := b.offers.Draft(ctx, session.UserID, offerID)
	if err != nil {
		if errors.Is(err, assistant.ErrNotConfigured) {
			return b.sendText(chatID, "The assistant is not configured on this bot.")
		}
		return b.sendError(chatID, "Could not draft the offer", err)
	}
	log.Printf("[info] offer drafted id=%s user=%s", offerID, session.UserID)
	return b.sendLong(chatID, draft)
}

func (b *Bot) handleChat(ctx context.Context, msg *tgbotapi.Message, session *auth.Session) error {
	state := &conversationState{stage: stageChat}
	b.setConversation(msg.From.ID, state)

	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		return b.sendWithReplyMarkup(msg.Chat.ID,
			"💬 Chat mode. Ask anything about today's tasks. Cancel to leave.", cancelKeyboard())
	}
	return b.onChatMessage(ctx, msg, session, state, text)
}

func (b *Bot) onChatMessage(ctx context.Context, msg *tgbotapi.Message, session *auth.Session, state *conversationState, text string) error {
	reply, err := b.chat.Ask(ctx, session.UserID, state.history, text)
	if err != nil {
		if errors.Is(err, assistant.ErrNotConfigured) {
			b.clearConversation(msg.From.ID)
			return b.sendText(msg.Chat.ID, "The assistant is not configured on this bot.")
		}
		return b.sendError(msg.Chat.ID, "The assistant did not answer", err)
	}

	state.history = appendHistory(state.history,
		assistant.Message{Role: assistant.RoleUser, Content: text},
		assistant.Message{Role: assistant.RoleAssistant, Content: reply},
	)
	return b.sendLong(msg.Chat.ID, reply)
}

// appendHistory keeps the last maxChatHistory messages, starting on a user turn.
func appendHistory(history []assistant.Message, msgs ...assistant.Message) []assistant.Message {
	history = append(history, msgs...)
	if len(history) <= maxChatHistory {
		return history
	}
	history = history[len(history)-maxChatHistory:]
	for len(history) > 0 && history[0].Role != assistant.RoleUser {
		history = history[1:]
	}
	return history
}

// sendLong sends plain text, split on line boundaries where possible.
func (b *Bot) sendLong(chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageRunes) {
		if err := b.sendText(chatID, escape(chunk)); err != nil {
			return err
		}
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	runes := []rune(strings.TrimSpace(text))
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
