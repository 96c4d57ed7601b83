package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-review/internal/assistant"
	"daily-review/internal/auth"
	"daily-review/internal/model"
	"daily-review/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTaskText
	stageTaskDue
	stageTaskNonNegotiable
	stageTaskPriority
	stageTaskProject
	stageHabitName
	stageHabitFrequency
	stageHabitNonNegotiable
	stageHabitPriority
	stageReviewHours
	stageReviewLessons
	stageReviewTomorrowTask
	stageReviewTomorrowProject
	stageEditTaskText
	stageEditTaskDue
	stageEditTaskProject
	stageOfferAnswer
	stageChat
)

// maxChatHistory bounds the messages replayed to the assistant.
const maxChatHistory = 20

// projectNone is the project picker's "no project" argument.
const projectNone = "none"

type conversationState struct {
	stage   conversationStage
	task    service.TaskInput
	habit   service.HabitInput
	editID  string
	offerID string
	history []assistant.Message
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	session, ok := b.sessions.Current(msg.From.ID)
	if !ok {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "You are signed out. Send /start to sign in.")
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTaskText:
		return b.onTaskText(msg, state, text)
	case stageTaskDue:
		return b.onTaskDue(msg, state, text)
	case stageTaskNonNegotiable:
		return b.onTaskNonNegotiable(ctx, msg, session, state, text)
	case stageTaskPriority:
		state.task.Priority = priorityFromInput(text)
		return b.askTaskProject(ctx, msg.Chat.ID, msg.From.ID, session, state)
	case stageTaskProject:
		if isSkipInput(text) {
			return b.finishTask(ctx, msg.Chat.ID, msg.From.ID, session, state)
		}
		return b.sendText(msg.Chat.ID, "Pick a project from the buttons above or send \"-\" for none.")
	case stageHabitName:
		return b.onHabitName(msg, state, text)
	case stageHabitFrequency:
		return b.onHabitFrequency(msg, state, text)
	case stageHabitNonNegotiable:
		return b.onHabitNonNegotiable(ctx, msg, session, state, text)
	case stageHabitPriority:
		state.habit.Priority = priorityFromInput(text)
		return b.finishHabit(ctx, msg.Chat.ID, msg.From.ID, session, state)
	case stageReviewHours:
		return b.onReviewHours(ctx, msg, session, text)
	case stageReviewLessons:
		return b.onReviewLessons(ctx, msg, session, text)
	case stageReviewTomorrowTask:
		return b.onReviewTomorrowTask(ctx, msg, session, text)
	case stageReviewTomorrowProject:
		return b.onReviewTomorrowProject(msg, session, state, text)
	case stageEditTaskText:
		return b.onEditTaskText(ctx, msg, session, state, text)
	case stageEditTaskDue:
		return b.onEditTaskDue(ctx, msg, session, state, text)
	case stageEditTaskProject:
		if isSkipInput(text) {
			return b.applyTaskEdit(ctx, msg.Chat.ID, msg.From.ID, session, state.editID, service.TaskEdit{ClearProject: true})
		}
		return b.sendText(msg.Chat.ID, "Pick a project from the buttons above or send \"-\" for none.")
	case stageOfferAnswer:
		return b.onOfferAnswer(ctx, msg, session, state, text)
	case stageChat:
		return b.onChatMessage(ctx, msg, session, state, text)
	default:
		b.clearConversation(msg.From.ID)
		return nil
	}
}

func priorityFromInput(text string) string {
	if strings.EqualFold(strings.TrimSpace(text), btnImportant) {
		return string(model.PriorityImportant)
	}
	return string(model.PriorityFlexible)
}

// task creation

func (b *Bot) startNewTask(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, &conversationState{stage: stageTaskText})
	return b.sendWithReplyMarkup(msg.Chat.ID, "📝 What is the task?", cancelKeyboard())
}

func (b *Bot) onTaskText(msg *tgbotapi.Message, state *conversationState, text string) error {
	if text == "" {
		return b.sendWithReplyMarkup(msg.Chat.ID, "The task needs some text.", cancelKeyboard())
	}
	state.task.Text = normalizeTitle(text)
	state.stage = stageTaskDue
	return b.sendWithReplyMarkup(msg.Chat.ID, "📅 When is it due? Today, tomorrow, YYYY-MM-DD or \"next friday\". Skip for no date.", dueDateKeyboard())
}

func (b *Bot) onTaskDue(msg *tgbotapi.Message, state *conversationState, text string) error {
	if !isSkipInput(text) {
		due, err := parseDueDate(text, b.now(), b.items.Location())
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I couldn't read that date. Try YYYY-MM-DD or \"next friday\".", dueDateKeyboard())
		}
		state.task.DueDate = due
	}
	state.stage = stageTaskNonNegotiable
	return b.sendWithReplyMarkup(msg.Chat.ID, "🔥 Is it a non-negotiable?", yesNoKeyboard())
}

func (b *Bot) onTaskNonNegotiable(ctx context.Context, msg *tgbotapi.Message, session *auth.Session, state *conversationState, text string) error {
	yes, ok := parseYesNo(text)
	if !ok {
		return b.sendWithReplyMarkup(msg.Chat.ID, "Please answer yes or no.", yesNoKeyboard())
	}
	state.task.IsNonNegotiable = yes
	if yes {
		state.task.Priority = string(model.PriorityImportant)
		return b.askTaskProject(ctx, msg.Chat.ID, msg.From.ID, session, state)
	}
	state.stage = stageTaskPriority
	return b.sendWithReplyMarkup(msg.Chat.ID, "⭐️ Priority?", priorityKeyboard())
}

func (b *Bot) askTaskProject(ctx context.Context, chatID, userID int64, session *auth.Session, state *conversationState) error {
	projects, err := b.items.ListProjects(ctx, session.UserID)
	if err != nil {
		log.Printf("list projects for task: %v", err)
	}
	if len(projects) == 0 {
		return b.finishTask(ctx, chatID, userID, session, state)
	}

	state.stage = stageTaskProject
	return b.sendWithReplyMarkup(chatID, "📁 Which project?", projectPicker(projects))
}

// pickProject answers whichever dialog is waiting on the project picker.
func (b *Bot) pickProject(ctx context.Context, cb *tgbotapi.CallbackQuery, session *auth.Session, arg string) error {
	state := b.getConversation(cb.From.ID)
	if state == nil {
		return nil
	}
	var projectID *string
	if arg != projectNone {
		id := arg
		projectID = &id
	}
	chatID := cb.Message.Chat.ID

	switch state.stage {
	case stageTaskProject:
		state.task.ProjectID = projectID
		return b.finishTask(ctx, chatID, cb.From.ID, session, state)
	case stageReviewTomorrowProject:
		wf := activeWorkflow(session)
		if wf == nil {
			b.clearConversation(cb.From.ID)
			return b.sendText(chatID, "No review in progress. Send /review to start one.")
		}
		return b.addTomorrowTask(chatID, cb.From.ID, wf, state.task.Text, projectID)
	case stageEditTaskProject:
		edit := service.TaskEdit{ProjectID: projectID, ClearProject: projectID == nil}
		return b.applyTaskEdit(ctx, chatID, cb.From.ID, session, state.editID, edit)
	}
	return nil
}

func (b *Bot) finishTask(ctx context.Context, chatID, userID int64, session *auth.Session, state *conversationState) error {
	b.clearConversation(userID)
	task, err := b.items.CreateTask(ctx, session.UserID, state.task)
	if err != nil {
		return b.sendError(chatID, "Could not create the task", err)
	}
	log.Printf("[info] task created id=%s user=%s nn=%t", task.ID, session.UserID, task.IsNonNegotiable)

	text := "✅ Task added:\n" + formatTask(*task, nil, b.now().In(b.items.Location()))
	return b.sendText(chatID, text)
}

// habit creation

func (b *Bot) startNewHabit(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, &conversationState{stage: stageHabitName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "♻️ Name the habit.", cancelKeyboard())
}

func (b *Bot) onHabitName(msg *tgbotapi.Message, state *conversationState, text string) error {
	if text == "" {
		return b.sendWithReplyMarkup(msg.Chat.ID, "The habit needs a name.", cancelKeyboard())
	}
	state.habit.Name = normalizeTitle(text)
	state.stage = stageHabitFrequency
	return b.sendWithReplyMarkup(msg.Chat.ID,
		"🔁 How often? Every day, weekdays, or list days like <code>mon wed fri</code> or <code>1,3,5</code> (0 is Sunday).",
		frequencyKeyboard())
}

func (b *Bot) onHabitFrequency(msg *tgbotapi.Message, state *conversationState, text string) error {
	switch strings.ToLower(text) {
	case strings.ToLower(btnDaily):
		state.habit.Frequency = model.Frequency{Type: model.FrequencyDaily}
	case strings.ToLower(btnWeekdays):
		state.habit.Frequency = model.Frequency{Type: model.FrequencyCustom, DaysOfWeek: []int{1, 2, 3, 4, 5}}
	default:
		days, err := parseDays(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("⚠️ %s. Try <code>mon wed fri</code>.", escape(err.Error())), frequencyKeyboard())
		}
		freq := model.FrequencyCustom
		if len(days) == 1 {
			freq = model.FrequencyWeekly
		}
		state.habit.Frequency = model.Frequency{Type: freq, DaysOfWeek: days}
	}
	state.stage = stageHabitNonNegotiable
	return b.sendWithReplyMarkup(msg.Chat.ID, "🔥 Is it a non-negotiable?", yesNoKeyboard())
}

func (b *Bot) onHabitNonNegotiable(ctx context.Context, msg *tgbotapi.Message, session *auth.Session, state *conversationState, text string) error {
	yes, ok := parseYesNo(text)
	if !ok {
		return b.sendWithReplyMarkup(msg.Chat.ID, "Please answer yes or no.", yesNoKeyboard())
	}
	state.habit.IsNonNegotiable = yes
	if yes {
		state.habit.Priority = string(model.PriorityImportant)
		return b.finishHabit(ctx, msg.Chat.ID, msg.From.ID, session, state)
	}
	state.stage = stageHabitPriority
	return b.sendWithReplyMarkup(msg.Chat.ID, "⭐️ Priority?", priorityKeyboard())
}

func (b *Bot) finishHabit(ctx context.Context, chatID, userID int64, session *auth.Session, state *conversationState) error {
	b.clearConversation(userID)
	habit, err := b.items.CreateHabit(ctx, session.UserID, state.habit)
	if err != nil {
		return b.sendError(chatID, "Could not create the habit", err)
	}
	log.Printf("[info] habit created id=%s user=%s", habit.ID, session.UserID)
	return b.sendText(chatID, "✅ Habit added:\n"+formatHabit(*habit, b.now().In(b.items.Location())))
}
