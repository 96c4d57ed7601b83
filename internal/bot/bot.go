package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-review/internal/auth"
	"daily-review/internal/config"
	"daily-review/internal/model"
	"daily-review/internal/review"
	"daily-review/internal/service"
)

// telegramAPI is the part of tgbotapi.BotAPI the bot uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Services bundles what the handlers call into.
type Services struct {
	Sessions  *auth.Manager
	Items     *service.ItemService
	Reminders *service.ReminderService
	Offers    *service.OfferService
	Chat      *service.ChatService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           telegramAPI
	sessions      *auth.Manager
	items         *service.ItemService
	reminders     *service.ReminderService
	offers        *service.OfferService
	chat          *service.ChatService
	config        *config.Config
	clock         review.Clock
	now           func() time.Time
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(token string, svc Services, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return newBot(api, svc, cfg, review.SystemClock), nil
}

func newBot(api telegramAPI, svc Services, cfg *config.Config, clock review.Clock) *Bot {
	return &Bot{
		api:           api,
		sessions:      svc.Sessions,
		items:         svc.Items,
		reminders:     svc.Reminders,
		offers:        svc.Offers,
		chat:          svc.Chat,
		config:        cfg,
		clock:         clock,
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if b.hasConversation(msg.From.ID) {
		log.Printf("[info] conversation step %d from %d", b.getConversation(msg.From.ID).stage, msg.From.ID)
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Try /today, /review or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	session, ok := b.sessions.Current(msg.From.ID)
	if !ok {
		return b.sendText(msg.Chat.ID, "You are signed out. Send /start to sign in.")
	}

	switch msg.Command() {
	case "today":
		return b.sendToday(ctx, msg.Chat.ID, 0, session)
	case "review":
		return b.startReview(ctx, msg.Chat.ID, session)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID, session)
	case "newtask":
		return b.startNewTask(msg)
	case "habits":
		return b.sendHabitList(ctx, msg.Chat.ID, session)
	case "newhabit":
		return b.startNewHabit(msg)
	case "projects":
		return b.sendProjectList(ctx, msg.Chat.ID, session)
	case "newproject":
		return b.handleNewProject(ctx, msg, session)
	case "offer":
		return b.handleOffer(ctx, msg, session)
	case "chat":
		return b.handleChat(ctx, msg, session)
	case "report":
		return b.handleReport(ctx, msg.Chat.ID, session)
	case "signout":
		return b.handleSignOut(msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	session, err := b.sessions.SignIn(ctx, identityOf(msg.From))
	if err != nil {
		log.Printf("sign in %d: %v", msg.From.ID, err)
		return b.sendText(msg.Chat.ID, "Sign-in failed, please try again later.")
	}

	name := strings.TrimSpace(session.DisplayName)
	if name == "" {
		name = "friend"
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I keep your non-negotiables honest and help you plan tomorrow.</b>\n\n%s",
		escape(name), helpText,
	)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Commands:\n" +
	"• /today — what is due today\n" +
	"• /review — daily review: check, reflect, plan tomorrow\n" +
	"• /tasks, /newtask — tasks\n" +
	"• /habits, /newhabit — habits and streaks\n" +
	"• /projects, /newproject &lt;name&gt; — projects\n" +
	"• /offer [title] — offer questionnaire\n" +
	"• /chat [message] — talk to the assistant about today\n" +
	"• /report — today summary now\n" +
	"• /signout — end the session\n" +
	"• /cancel — cancel current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Help</b>\n" + helpText
	if b.config != nil && b.config.ReviewReminderAt != "" {
		text += fmt.Sprintf("\n\n🔔 Review reminder every day at %s.", b.config.ReviewReminderAt)
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleSignOut(msg *tgbotapi.Message) error {
	b.clearConversation(msg.From.ID)
	b.sessions.SignOut(msg.From.ID)
	log.Printf("[info] signed out user=%d", msg.From.ID)
	return b.sendText(msg.Chat.ID, "👋 Signed out. Send /start to come back.")
}

func (b *Bot) handleReport(ctx context.Context, chatID int64, session *auth.Session) error {
	text, err := b.reminders.DailySummary(ctx, userOf(session), b.now().In(b.items.Location()))
	if err != nil {
		return b.sendError(chatID, "Could not build the report", err)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	var command string
	switch strings.TrimSpace(strings.ToLower(msg.Text)) {
	case strings.ToLower(menuLabelToday):
		command = "today"
	case strings.ToLower(menuLabelReview):
		command = "review"
	case strings.ToLower(menuLabelNewTask):
		command = "newtask"
	case strings.ToLower(menuLabelTasks):
		command = "tasks"
	case strings.ToLower(menuLabelHabits):
		command = "habits"
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
	b.clearConversation(msg.From.ID)
	alias := *msg
	alias.Text = "/" + command
	alias.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(alias.Text)}}
	return true, b.handleCommand(ctx, &alias)
}

// SendDailyReports sends a today summary to every signed-in user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	now := b.now().In(b.items.Location())
	for _, session := range b.sessions.Sessions() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.reminders.DailySummary(ctx, userOf(session), now)
		if err != nil {
			log.Printf("build summary for user %d: %v", session.TelegramID, err)
			continue
		}
		if err := b.sendText(session.TelegramID, text); err != nil {
			log.Printf("send summary to %d: %v", session.TelegramID, err)
		}
	}
	return nil
}

// SendReviewReminders nudges every signed-in user to run the daily review.
func (b *Bot) SendReviewReminders(ctx context.Context) error {
	for _, session := range b.sessions.Sessions() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.reminders.ReviewReminder(ctx, userOf(session))
		if err != nil {
			log.Printf("build review reminder for user %d: %v", session.TelegramID, err)
			continue
		}
		if err := b.sendText(session.TelegramID, text); err != nil {
			log.Printf("send review reminder to %d: %v", session.TelegramID, err)
		}
	}
	return nil
}

func identityOf(from *tgbotapi.User) auth.Identity {
	return auth.Identity{
		TelegramID: from.ID,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
		Username:   from.UserName,
	}
}

func userOf(session *auth.Session) model.User {
	return model.User{ID: session.UserID, TelegramID: session.TelegramID, DisplayName: session.DisplayName, Email: session.Email}
}

// sendError logs err and answers inline. Validation problems are shown as is.
func (b *Bot) sendError(chatID int64, what string, err error) error {
	log.Printf("%s (chat %d): %v", what, chatID, err)
	switch {
	case errors.Is(err, model.ErrValidationFailed):
		return b.sendText(chatID, fmt.Sprintf("⚠️ %s: %s", what, escape(err.Error())))
	case errors.Is(err, model.ErrNotFound):
		return b.sendText(chatID, fmt.Sprintf("⚠️ %s: not found.", what))
	case errors.Is(err, model.ErrNotAuthenticated):
		return b.sendText(chatID, "You are signed out. Send /start to sign in.")
	case errors.Is(err, review.ErrInvalidTransition):
		return b.sendText(chatID, fmt.Sprintf("⚠️ %s right now.", what))
	default:
		return b.sendText(chatID, fmt.Sprintf("⚠️ %s. Please try again.", what))
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// sendOrEdit replaces messageID in place, or sends a new message when it is zero.
func (b *Bot) sendOrEdit(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	if messageID == 0 {
		return b.sendWithReplyMarkup(chatID, text, markup)
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		return err
	}
	return nil
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		log.Printf("callback ack: %v", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	session, ok := b.sessions.Current(cb.From.ID)
	if !ok {
		b.ack(cb, "Signed out")
		return b.sendText(cb.Message.Chat.ID, "You are signed out. Send /start to sign in.")
	}

	action, arg := parseCallback(cb.Data)
	log.Printf("[info] callback %s user=%d arg=%s", action, cb.From.ID, arg)
	chatID, messageID := cb.Message.Chat.ID, cb.Message.MessageID

	switch action {
	case cbReview:
		return b.handleReviewCallback(ctx, cb, session, arg)
	case cbToggleTask, cbToggleHabit:
		b.ack(cb, "")
		if err := b.toggleItem(ctx, session, kindOf(action), arg); err != nil {
			return b.sendError(chatID, "Could not update the item", err)
		}
		return b.sendToday(ctx, chatID, messageID, session)
	case cbTaskListDone:
		b.ack(cb, "")
		if err := b.toggleItem(ctx, session, service.KindTask, arg); err != nil {
			return b.sendError(chatID, "Could not update the task", err)
		}
		return b.sendTaskList(ctx, chatID, session)
	case cbHabitListDone:
		b.ack(cb, "")
		if err := b.toggleItem(ctx, session, service.KindHabit, arg); err != nil {
			return b.sendError(chatID, "Could not update the habit", err)
		}
		return b.sendHabitList(ctx, chatID, session)
	case cbHideCompleted, cbShowCompleted:
		b.ack(cb, "")
		session.Set(keyHideCompleted, action == cbHideCompleted)
		return b.sendToday(ctx, chatID, messageID, session)
	case cbEditTask:
		b.ack(cb, "")
		return b.sendTaskEditor(ctx, chatID, 0, session, arg)
	case cbEditField:
		b.ack(cb, "")
		return b.handleEditField(ctx, cb, session, arg)
	case cbDeleteTask:
		b.ack(cb, "")
		return b.sendWithReplyMarkup(chatID, "Delete this task?", confirmInline(callbackData(cbConfirmTask, arg)))
	case cbConfirmTask:
		b.ack(cb, "")
		if err := b.items.DeleteTask(ctx, session.UserID, arg); err != nil {
			return b.sendError(chatID, "Could not delete the task", err)
		}
		log.Printf("[info] task deleted id=%s user=%s", arg, session.UserID)
		return b.sendTaskList(ctx, chatID, session)
	case cbDeleteHabit:
		b.ack(cb, "")
		return b.sendWithReplyMarkup(chatID, "Delete this habit and its history?", confirmInline(callbackData(cbConfirmHabit, arg)))
	case cbConfirmHabit:
		b.ack(cb, "")
		if err := b.items.DeleteHabit(ctx, session.UserID, arg); err != nil {
			return b.sendError(chatID, "Could not delete the habit", err)
		}
		return b.sendHabitList(ctx, chatID, session)
	case cbDeleteProject:
		b.ack(cb, "")
		if err := b.items.DeleteProject(ctx, session.UserID, arg); err != nil {
			return b.sendError(chatID, "Could not delete the project", err)
		}
		return b.sendProjectList(ctx, chatID, session)
	case cbPickProject:
		b.ack(cb, "")
		return b.pickProject(ctx, cb, session, arg)
	case cbOfferContinue:
		b.ack(cb, "")
		return b.continueOffer(ctx, chatID, cb.From.ID, session, arg)
	case cbOfferDraft:
		b.ack(cb, "Drafting…")
		return b.draftOffer(ctx, chatID, session, arg)
	case cbDeleteOffer:
		b.ack(cb, "")
		return b.sendWithReplyMarkup(chatID, "Delete this offer and its answers?", confirmInline(callbackData(cbConfirmOffer, arg)))
	case cbConfirmOffer:
		b.ack(cb, "")
		if err := b.offers.Delete(ctx, session.UserID, arg); err != nil {
			return b.sendError(chatID, "Could not delete the offer", err)
		}
		log.Printf("[info] offer deleted id=%s user=%s", arg, session.UserID)
		return b.sendOfferList(ctx, chatID, session)
	case cbCancel:
		b.ack(cb, "Cancelled")
		_, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, "⏪ Cancelled."))
		return err
	default:
		b.ack(cb, "")
		return nil
	}
}

// conversation state

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
