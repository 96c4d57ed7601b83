package bot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-review/internal/auth"
	"daily-review/internal/model"
	"daily-review/internal/service"
)

const keyHideCompleted = "hide_completed"

func hideCompleted(session *auth.Session) bool {
	v, ok := session.Get(keyHideCompleted)
	if !ok {
		return false
	}
	hide, _ := v.(bool)
	return hide
}

func kindOf(action string) service.ItemKind {
	if action == cbToggleHabit {
		return service.KindHabit
	}
	return service.KindTask
}

func toggleAction(kind service.ItemKind) string {
	if kind == service.KindHabit {
		return cbToggleHabit
	}
	return cbToggleTask
}

func (b *Bot) sendToday(ctx context.Context, chatID int64, messageID int, session *auth.Session) error {
	today, err := b.items.Today(ctx, session.UserID)
	if err != nil {
		return b.sendError(chatID, "Could not load today", err)
	}
	text, markup := renderToday(today, hideCompleted(session))
	return b.sendOrEdit(chatID, messageID, text, markup)
}

func renderToday(today service.Today, hide bool) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 <b>Today</b> · %s\n", today.Date.Format("Mon, 02 Jan")))

	var rows [][]tgbotapi.InlineKeyboardButton
	section := func(title string, items []service.DueItem) {
		visible := service.Visible(items, hide)
		sb.WriteString(fmt.Sprintf("\n%s (%d)\n", title, len(items)))
		if len(visible) == 0 {
			sb.WriteString("<i>nothing here</i>\n")
			return
		}
		for _, item := range visible {
			sb.WriteString(service.FormatItem(item))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(itemButton(item), callbackData(toggleAction(item.Kind), item.ID)),
			))
		}
	}
	section("🔥 <b>Non-negotiables</b>", today.NonNegotiables)
	section("📌 <b>Everything else</b>", today.Others)

	done := 0
	for _, item := range today.Items {
		if item.IsCompleted {
			done++
		}
	}
	sb.WriteString(fmt.Sprintf("\n✅ %d/%d done", done, len(today.Items)))

	filter := tgbotapi.NewInlineKeyboardButtonData("🙈 Hide completed", callbackData(cbHideCompleted))
	if hide {
		filter = tgbotapi.NewInlineKeyboardButtonData("👀 Show completed", callbackData(cbShowCompleted))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(filter))
	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func itemButton(item service.DueItem) string {
	icon := "⬜️"
	if item.IsCompleted {
		icon = "✅"
	}
	return icon + " " + shortTitle(item.Text, 40)
}

// toggleItem flips completion. While a review is open the change goes through
// it so the completion gate sees it.
func (b *Bot) toggleItem(ctx context.Context, session *auth.Session, kind service.ItemKind, id string) error {
	if wf := activeWorkflow(session); wf != nil {
		if item, ok := wf.View().Today.Find(id); ok && item.Kind == kind {
			_, err := wf.Toggle(ctx, id)
			return err
		}
	}

	now := b.now().In(b.items.Location())
	switch kind {
	case service.KindHabit:
		habits, err := b.items.ListHabits(ctx, session.UserID)
		if err != nil {
			return err
		}
		for _, h := range habits {
			if h.ID == id {
				return b.items.SetHabitCompleted(ctx, session.UserID, id, !model.CompletedOn(h.Completions, now))
			}
		}
	default:
		tasks, err := b.items.ListTasks(ctx, session.UserID)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.ID == id {
				return b.items.SetTaskCompleted(ctx, session.UserID, id, !t.IsCompleted())
			}
		}
	}
	return fmt.Errorf("toggle %s %s: %w", kind, id, model.ErrNotFound)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, session *auth.Session) error {
	tasks, err := b.items.ListTasks(ctx, session.UserID)
	if err != nil {
		return b.sendError(chatID, "Could not load tasks", err)
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "📋 No tasks yet. Add one with /newtask.")
	}

	projects := b.projectNames(ctx, session.UserID)
	sort.SliceStable(tasks, func(i, j int) bool {
		return !tasks[i].IsCompleted() && tasks[j].IsCompleted()
	})

	now := b.now().In(b.items.Location())
	var sb strings.Builder
	sb.WriteString("📋 <b>Tasks</b>\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for i, task := range tasks {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, formatTask(task, projects, now)))
		label := fmt.Sprintf("%d. ⬜️", i+1)
		if task.IsCompleted() {
			label = fmt.Sprintf("%d. ✅", i+1)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackData(cbTaskListDone, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✏️", callbackData(cbEditTask, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", callbackData(cbDeleteTask, task.ID)),
		))
	}
	return b.sendWithReplyMarkup(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// Task editor fields, sent as "<field>:<task id>" with cbEditField.
const (
	editText     = "text"
	editDue      = "due"
	editNN       = "nn"
	editPriority = "prio"
	editProject  = "proj"
)

func (b *Bot) sendTaskEditor(ctx context.Context, chatID int64, messageID int, session *auth.Session, taskID string) error {
	task, err := b.items.Task(ctx, session.UserID, taskID)
	if err != nil {
		return b.sendError(chatID, "Could not load the task", err)
	}
	now := b.now().In(b.items.Location())
	text := "✏️ <b>Edit task</b>\n\n" + formatTask(*task, b.projectNames(ctx, session.UserID), now)

	nnLabel := "🔥 Make non-negotiable"
	if task.IsNonNegotiable {
		nnLabel = "Not a non-negotiable"
	}
	priorityLabel := "⭐️ Make important"
	if task.Priority == model.PriorityImportant {
		priorityLabel = "Make flexible"
	}
	field := func(label, name string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, callbackData(cbEditField, name, task.ID))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(field("✏️ Text", editText), field("📅 Due date", editDue)),
		tgbotapi.NewInlineKeyboardRow(field(nnLabel, editNN), field(priorityLabel, editPriority)),
		tgbotapi.NewInlineKeyboardRow(field("📁 Project", editProject)),
	)
	return b.sendOrEdit(chatID, messageID, text, markup)
}

func (b *Bot) handleEditField(ctx context.Context, cb *tgbotapi.CallbackQuery, session *auth.Session, arg string) error {
	chatID, messageID := cb.Message.Chat.ID, cb.Message.MessageID
	name, taskID, _ := strings.Cut(arg, ":")

	switch name {
	case editText:
		b.setConversation(cb.From.ID, &conversationState{stage: stageEditTaskText, editID: taskID})
		return b.sendWithReplyMarkup(chatID, "✏️ New text for the task:", cancelKeyboard())
	case editDue:
		b.setConversation(cb.From.ID, &conversationState{stage: stageEditTaskDue, editID: taskID})
		return b.sendWithReplyMarkup(chatID, "📅 New due date? Skip removes it.", dueDateKeyboard())
	case editProject:
		projects, err := b.items.ListProjects(ctx, session.UserID)
		if err != nil {
			return b.sendError(chatID, "Could not load projects", err)
		}
		if len(projects) == 0 {
			return b.sendText(chatID, "📁 No projects yet. Create one with /newproject Name.")
		}
		b.setConversation(cb.From.ID, &conversationState{stage: stageEditTaskProject, editID: taskID})
		return b.sendWithReplyMarkup(chatID, "📁 Move the task to which project?", projectPicker(projects))
	case editNN, editPriority:
		task, err := b.items.Task(ctx, session.UserID, taskID)
		if err != nil {
			return b.sendError(chatID, "Could not load the task", err)
		}
		var edit service.TaskEdit
		if name == editNN {
			nn := !task.IsNonNegotiable
			edit.IsNonNegotiable = &nn
		} else {
			priority := string(model.PriorityImportant)
			if task.Priority == model.PriorityImportant {
				priority = string(model.PriorityFlexible)
			}
			edit.Priority = &priority
		}
		if _, err := b.items.UpdateTask(ctx, session.UserID, taskID, edit); err != nil {
			return b.sendError(chatID, "Could not update the task", err)
		}
		return b.sendTaskEditor(ctx, chatID, messageID, session, taskID)
	}
	return nil
}

func (b *Bot) onEditTaskText(ctx context.Context, msg *tgbotapi.Message, session *auth.Session, state *conversationState, text string) error {
	text = normalizeTitle(text)
	if text == "" {
		return b.sendWithReplyMarkup(msg.Chat.ID, "The task needs some text.", cancelKeyboard())
	}
	return b.applyTaskEdit(ctx, msg.Chat.ID, msg.From.ID, session, state.editID, service.TaskEdit{Text: &text})
}

func (b *Bot) onEditTaskDue(ctx context.Context, msg *tgbotapi.Message, session *auth.Session, state *conversationState, text string) error {
	if isSkipInput(text) {
		return b.applyTaskEdit(ctx, msg.Chat.ID, msg.From.ID, session, state.editID, service.TaskEdit{ClearDueDate: true})
	}
	due, err := parseDueDate(text, b.now(), b.items.Location())
	if err != nil {
		return b.sendWithReplyMarkup(msg.Chat.ID, "I couldn't read that date. Try YYYY-MM-DD or \"next friday\".", dueDateKeyboard())
	}
	return b.applyTaskEdit(ctx, msg.Chat.ID, msg.From.ID, session, state.editID, service.TaskEdit{DueDate: due})
}

// applyTaskEdit ends the edit dialog, saves edit and shows the editor again.
func (b *Bot) applyTaskEdit(ctx context.Context, chatID, userID int64, session *auth.Session, taskID string, edit service.TaskEdit) error {
	b.clearConversation(userID)
	if _, err := b.items.UpdateTask(ctx, session.UserID, taskID, edit); err != nil {
		return b.sendError(chatID, "Could not update the task", err)
	}
	log.Printf("[info] task edited id=%s user=%s", taskID, session.UserID)
	if err := b.sendText(chatID, "✅ Task updated."); err != nil {
		return err
	}
	return b.sendTaskEditor(ctx, chatID, 0, session, taskID)
}

func (b *Bot) projectNames(ctx context.Context, userID string) map[string]string {
	projects, err := b.items.ListProjects(ctx, userID)
	if err != nil {
		log.Printf("list projects for %s: %v", userID, err)
		return nil
	}
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names
}

func (b *Bot) sendHabitList(ctx context.Context, chatID int64, session *auth.Session) error {
	habits, err := b.items.ListHabits(ctx, session.UserID)
	if err != nil {
		return b.sendError(chatID, "Could not load habits", err)
	}
	if len(habits) == 0 {
		return b.sendText(chatID, "♻️ No habits yet. Add one with /newhabit.")
	}

	now := b.now().In(b.items.Location())
	var sb strings.Builder
	sb.WriteString("♻️ <b>Habits</b>\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(habits))
	for i, habit := range habits {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, formatHabit(habit, now)))
		buttons := []tgbotapi.InlineKeyboardButton{}
		if habit.Frequency.ScheduledOn(now.Weekday()) {
			label := fmt.Sprintf("%d. ⬜️", i+1)
			if model.CompletedOn(habit.Completions, now) {
				label = fmt.Sprintf("%d. ✅", i+1)
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, callbackData(cbHabitListDone, habit.ID)))
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d. 🗑", i+1), callbackData(cbDeleteHabit, habit.ID)))
		rows = append(rows, buttons)
	}
	return b.sendWithReplyMarkup(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) sendProjectList(ctx context.Context, chatID int64, session *auth.Session) error {
	projects, err := b.items.ListProjects(ctx, session.UserID)
	if err != nil {
		return b.sendError(chatID, "Could not load projects", err)
	}
	if len(projects) == 0 {
		return b.sendText(chatID, "📁 No projects yet. Create one with /newproject Name.")
	}

	tasks, err := b.items.ListTasks(ctx, session.UserID)
	if err != nil {
		return b.sendError(chatID, "Could not load tasks", err)
	}
	counts := make(map[string]int)
	for _, t := range tasks {
		if t.ProjectID != nil {
			counts[*t.ProjectID]++
		}
	}

	var sb strings.Builder
	sb.WriteString("📁 <b>Projects</b>\n<i>Deleting a project keeps its tasks.</i>\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(projects))
	for _, p := range projects {
		sb.WriteString(fmt.Sprintf("• %s · %d tasks\n", escape(p.Name), counts[p.ID]))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+shortTitle(p.Name, 30), callbackData(cbDeleteProject, p.ID)),
		))
	}
	return b.sendWithReplyMarkup(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleNewProject(ctx context.Context, msg *tgbotapi.Message, session *auth.Session) error {
	name := normalizeTitle(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, "Usage: /newproject Name")
	}
	project, err := b.items.CreateProject(ctx, session.UserID, name, "")
	if err != nil {
		return b.sendError(msg.Chat.ID, "Could not create the project", err)
	}
	log.Printf("[info] project created id=%s user=%s", project.ID, session.UserID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📁 Project <b>%s</b> created.", escape(project.Name)))
}
