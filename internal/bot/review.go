package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-review/internal/auth"
	"daily-review/internal/model"
	"daily-review/internal/review"
	"daily-review/internal/service"
)

const keyReview = "review"

// activeWorkflow returns the session's unsubmitted review, if any.
func activeWorkflow(session *auth.Session) *review.Workflow {
	v, ok := session.Get(keyReview)
	if !ok {
		return nil
	}
	wf, ok := v.(*review.Workflow)
	if !ok || wf.View().Submitted {
		return nil
	}
	return wf
}

func (b *Bot) startReview(ctx context.Context, chatID int64, session *auth.Session) error {
	wf := activeWorkflow(session)
	if wf == nil {
		wf = b.newWorkflow(session)
	}
	if err := wf.Load(ctx); err != nil {
		return b.sendError(chatID, "Could not load today", err)
	}
	log.Printf("[info] review opened user=%s gate=%s", session.UserID, wf.Gate().State())
	return b.renderReview(chatID, 0, wf)
}

// newWorkflow replaces any earlier review; the session closes the old one and
// closes this one on sign-out.
func (b *Bot) newWorkflow(session *auth.Session) *review.Workflow {
	chatID := session.TelegramID
	wf := review.NewWorkflow(session.UserID, b.items, b.clock, func(t review.Transition) {
		b.onGateChange(chatID, t)
	})
	session.Set(keyReview, wf)
	return wf
}

// onGateChange reports timer-driven transitions; user-driven ones re-render in place.
func (b *Bot) onGateChange(chatID int64, t review.Transition) {
	log.Printf("[info] gate %s -> %s chat=%d", t.From, t.To, chatID)

	var err error
	switch {
	case t.To == review.StateFocusSessionComplete:
		err = b.sendWithReplyMarkup(chatID, "⏰ <b>Focus session complete.</b>", tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Timer Complete - Continue with Review", callbackData(cbReview, rvFocusDone)),
			),
		))
	case t.To == review.StateAllowedToProceed && t.From != review.StateFocusSessionComplete:
		err = b.sendWithReplyMarkup(chatID, "⏰ <b>Time's up.</b> You can continue with the review.", tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Continue ➡️", callbackData(cbReview, rvNext)),
			),
		))
	}
	if err != nil {
		log.Printf("notify gate change to %d: %v", chatID, err)
	}
}

func (b *Bot) renderReview(chatID int64, messageID int, wf *review.Workflow) error {
	var question *review.SequenceQuestion
	if q, ok := wf.StageQuestion(); ok {
		question = &q
	}
	text, markup := renderReviewView(wf.View(), question)
	return b.sendOrEdit(chatID, messageID, text, markup)
}

func (b *Bot) handleReviewCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, session *auth.Session, arg string) error {
	chatID, messageID := cb.Message.Chat.ID, cb.Message.MessageID
	wf := activeWorkflow(session)
	if wf == nil {
		b.ack(cb, "No review in progress")
		return b.sendText(chatID, "No review in progress. Send /review to start one.")
	}

	sub, param, _ := strings.Cut(arg, ":")
	var err error
	switch sub {
	case rvNext:
		_, err = wf.Next()
	case rvBack:
		wf.Back()
	case rvKeepWorking:
		err = wf.KeepWorking()
	case rvSkip:
		err = wf.SkipAnyway()
	case rvFocusDone:
		_, err = wf.ConfirmFocusComplete()
	case rvAmbient:
		err = wf.Gate().ToggleAmbient()
	case rvFocus:
		err = wf.Gate().ToggleFocus()
	case rvRefresh:
		err = wf.Load(ctx)
	case rvToggle:
		_, err = wf.Toggle(ctx, param)
	case rvHoursUp, rvHoursDown:
		err = wf.SetHours(stepHours(wf.View().HoursWorked, sub == rvHoursUp))
	case rvHours:
		b.ack(cb, "")
		b.setConversation(cb.From.ID, &conversationState{stage: stageReviewHours})
		return b.sendWithReplyMarkup(chatID, "⏱ How many hours did you work today? 0 to 24, half-hour steps.", cancelKeyboard())
	case rvLessons:
		b.ack(cb, "")
		b.setConversation(cb.From.ID, &conversationState{stage: stageReviewLessons})
		return b.sendWithReplyMarkup(chatID, "💡 What were your wins and lessons today?", cancelKeyboard())
	case rvYes, rvNo:
		wf.AnswerStage(sub == rvYes)
	case rvRestage:
		wf.ResetStage()
	case rvAdd:
		b.ack(cb, "")
		b.setConversation(cb.From.ID, &conversationState{stage: stageReviewTomorrowTask})
		return b.sendWithReplyMarkup(chatID, "📝 Non-negotiable for tomorrow:", cancelKeyboard())
	case rvAddSuggested:
		if task := wf.View().PriorityTask; task != "" {
			b.ack(cb, "")
			return b.askTomorrowProject(ctx, chatID, cb.From.ID, session, wf, task)
		}
	case rvRemove:
		wf.RemoveTomorrowTask(param)
	case rvSubmit:
		return b.submitReview(ctx, cb, session, wf)
	}

	if err != nil {
		log.Printf("review action %s user=%s: %v", sub, session.UserID, err)
	}
	b.ack(cb, reviewNotice(err))
	return b.renderReview(chatID, messageID, wf)
}

func (b *Bot) submitReview(ctx context.Context, cb *tgbotapi.CallbackQuery, session *auth.Session, wf *review.Workflow) error {
	chatID, messageID := cb.Message.Chat.ID, cb.Message.MessageID
	plan, err := wf.Submit(ctx)
	if err != nil {
		log.Printf("submit review user=%s: %v", session.UserID, err)
		b.ack(cb, reviewNotice(err))
		return b.renderReview(chatID, messageID, wf)
	}
	b.ack(cb, "Saved")
	session.Delete(keyReview)
	log.Printf("[info] review submitted user=%s date=%s tasks=%d", session.UserID, plan.Date, len(plan.NonNegotiables))

	edit := tgbotapi.NewEditMessageText(chatID, messageID, renderSubmitted(plan))
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		return b.sendText(chatID, renderSubmitted(plan))
	}
	return nil
}

func reviewNotice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, review.ErrHoursRequired):
		return "Enter hours worked first (0-24, half-hour steps)"
	case errors.Is(err, review.ErrPlanFull):
		return fmt.Sprintf("You can plan at most %d non-negotiables", review.MaxTomorrowTasks)
	case errors.Is(err, model.ErrValidationFailed):
		return "Task text is required"
	case errors.Is(err, review.ErrInvalidTransition):
		return "Not available right now"
	case errors.Is(err, model.ErrNotFound):
		return "That item is gone. Refreshing"
	default:
		return "Could not save. Please try again"
	}
}

// stepHours moves by half an hour within 0..24.
func stepHours(current *float64, up bool) float64 {
	h := 0.0
	if current != nil {
		h = *current
	}
	if up {
		h += 0.5
	} else {
		h -= 0.5
	}
	if h < 0 {
		h = 0
	}
	if h > 24 {
		h = 24
	}
	return h
}

func (b *Bot) onReviewHours(ctx context.Context, msg *tgbotapi.Message, session *auth.Session, text string) error {
	wf := activeWorkflow(session)
	if wf == nil {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "No review in progress. Send /review to start one.")
	}
	hours, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	if err == nil {
		err = wf.SetHours(hours)
	}
	if err != nil {
		return b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ Hours must be a number from 0 to 24 in half-hour steps, like 7.5.", cancelKeyboard())
	}
	b.clearConversation(msg.From.ID)
	if err := b.sendText(msg.Chat.ID, fmt.Sprintf("⏱ %s h saved.", formatHours(hours))); err != nil {
		return err
	}
	return b.renderReview(msg.Chat.ID, 0, wf)
}

func (b *Bot) onReviewLessons(ctx context.Context, msg *tgbotapi.Message, session *auth.Session, text string) error {
	wf := activeWorkflow(session)
	b.clearConversation(msg.From.ID)
	if wf == nil {
		return b.sendText(msg.Chat.ID, "No review in progress. Send /review to start one.")
	}
	wf.SetLessons(text)
	if err := b.sendText(msg.Chat.ID, "💡 Noted."); err != nil {
		return err
	}
	return b.renderReview(msg.Chat.ID, 0, wf)
}

func (b *Bot) onReviewTomorrowTask(ctx context.Context, msg *tgbotapi.Message, session *auth.Session, text string) error {
	wf := activeWorkflow(session)
	if wf == nil {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "No review in progress. Send /review to start one.")
	}
	title := normalizeTitle(text)
	if title == "" {
		return b.sendWithReplyMarkup(msg.Chat.ID, "The task needs some text.", cancelKeyboard())
	}
	return b.askTomorrowProject(ctx, msg.Chat.ID, msg.From.ID, session, wf, title)
}

// askTomorrowProject lets the user file a planned task under a project. With
// no projects, or a full plan, the task goes straight to the planner.
func (b *Bot) askTomorrowProject(ctx context.Context, chatID, userID int64, session *auth.Session, wf *review.Workflow, title string) error {
	if len(wf.View().Pending) >= review.MaxTomorrowTasks {
		return b.addTomorrowTask(chatID, userID, wf, title, nil)
	}
	projects, err := b.items.ListProjects(ctx, session.UserID)
	if err != nil {
		log.Printf("list projects for review: %v", err)
	}
	if len(projects) == 0 {
		return b.addTomorrowTask(chatID, userID, wf, title, nil)
	}
	b.setConversation(userID, &conversationState{
		stage: stageReviewTomorrowProject,
		task:  service.TaskInput{Text: title},
	})
	return b.sendWithReplyMarkup(chatID,
		fmt.Sprintf("📁 Which project is <b>%s</b> for?", escape(title)), projectPicker(projects))
}

func (b *Bot) onReviewTomorrowProject(msg *tgbotapi.Message, session *auth.Session, state *conversationState, text string) error {
	if !isSkipInput(text) {
		return b.sendText(msg.Chat.ID, "Pick a project from the buttons above or send \"-\" for none.")
	}
	wf := activeWorkflow(session)
	if wf == nil {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "No review in progress. Send /review to start one.")
	}
	return b.addTomorrowTask(msg.Chat.ID, msg.From.ID, wf, state.task.Text, nil)
}

func (b *Bot) addTomorrowTask(chatID, userID int64, wf *review.Workflow, title string, projectID *string) error {
	b.clearConversation(userID)
	if _, err := wf.AddTomorrowTask(title, projectID); err != nil {
		if err := b.sendText(chatID, "⚠️ "+reviewNotice(err)+"."); err != nil {
			return err
		}
	} else if err := b.sendText(chatID, "📝 Added for tomorrow."); err != nil {
		return err
	}
	return b.renderReview(chatID, 0, wf)
}

// rendering

var stepTitles = map[review.Step]string{
	review.StepCheck:      "Daily check",
	review.StepReflection: "Daily reflection",
	review.StepPlanning:   "Tomorrow's money-making plan",
}

func renderReviewView(v review.View, question *review.SequenceQuestion) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🌙 <b>Daily review</b> · %d/3 %s\n\n", int(v.Step), stepTitles[v.Step]))

	var rows [][]tgbotapi.InlineKeyboardButton
	switch v.Step {
	case review.StepCheck:
		rows = renderCheck(&sb, v)
	case review.StepReflection:
		rows = renderReflection(&sb, v)
	case review.StepPlanning:
		rows = renderPlanning(&sb, v, question)
	}
	return strings.TrimSpace(sb.String()), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func reviewButton(label, sub string, params ...string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, callbackData(cbReview, append([]string{sub}, params...)...))
}

func timerLabel(status review.TimerStatus) string {
	if status.Running {
		return "⏸ Pause"
	}
	return "▶️ Resume"
}

func renderCheck(sb *strings.Builder, v review.View) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	sb.WriteString("<b>Today's non-negotiables</b>\n")
	if len(v.Today.NonNegotiables) == 0 {
		sb.WriteString("<i>No non-negotiable tasks or habits due today.</i>\n")
	}
	done := 0
	for _, item := range v.Today.NonNegotiables {
		if item.IsCompleted {
			done++
		}
		sb.WriteString(service.FormatItem(item))
		if !v.Gate.DialogOpen() {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(reviewButton(itemButton(item), rvToggle, item.ID)))
		}
	}
	sb.WriteString("\n")

	continueRow := tgbotapi.NewInlineKeyboardRow(reviewButton("Continue ➡️", rvNext))
	switch v.Gate {
	case review.StateIncomplete:
		paused := ""
		if !v.Ambient.Running {
			paused = " (paused)"
		}
		sb.WriteString(fmt.Sprintf("⏳ %d of %d done · ⏱ %s%s", done, len(v.Today.NonNegotiables), clock(v.Ambient.Remaining), paused))
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(reviewButton(timerLabel(v.Ambient), rvAmbient), reviewButton("🔄", rvRefresh)),
			continueRow,
		)
	case review.StateAllComplete:
		sb.WriteString("🎉 All non-negotiables done!")
		rows = append(rows, continueRow)
	case review.StateAllowedToProceed:
		sb.WriteString("✅ You can continue.")
		rows = append(rows, continueRow)
	case review.StateWarningStep1:
		sb.WriteString("⚠️ <b>Incomplete Non-Negotiables</b>\n" +
			"You haven't completed all your non-negotiable tasks for today. " +
			"<b>These tasks are crucial for your progress.</b> " +
			"Are you sure you want to continue without completing them?")
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(reviewButton("Continue Working on Tasks", rvKeepWorking)),
			tgbotapi.NewInlineKeyboardRow(reviewButton("I want to skip anyway", rvSkip)),
		)
	case review.StateWarningStep2:
		sb.WriteString("⚠️ <b>Is This Really The Best You Can Do?</b>\n" +
			"<i>\"Discipline is choosing between what you want now and what you want most.\"</i>\n- Alex Hormozi")
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(reviewButton("You're Right, Let's Get It Done", rvKeepWorking)),
			tgbotapi.NewInlineKeyboardRow(reviewButton("skip for now", rvSkip)),
		)
	case review.StateFinalFocusSession:
		sb.WriteString(fmt.Sprintf("🎯 <b>Final Focus Session</b> · ⏱ %s\n", clock(v.Focus.Remaining)))
		sb.WriteString("Just 5 minutes of focused work on your non-negotiables. You can do this!\n" +
			"<i>\"The pain of discipline is nothing like the pain of disappointment.\"</i>\n- Alex Hormozi")
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(reviewButton(timerLabel(v.Focus), rvFocus), reviewButton("🔄", rvRefresh)))
	case review.StateFocusSessionComplete:
		sb.WriteString("⏰ <b>Focus session complete.</b>")
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(reviewButton("Timer Complete - Continue with Review", rvFocusDone)))
	default:
		rows = append(rows, continueRow)
	}
	return rows
}

func renderReflection(sb *strings.Builder, v review.View) [][]tgbotapi.InlineKeyboardButton {
	sb.WriteString("Record your work hours and key learnings.\n\n")
	hours := "<i>not set</i>"
	if v.HoursWorked != nil {
		hours = formatHours(*v.HoursWorked) + " h"
	}
	sb.WriteString(fmt.Sprintf("⏱ <b>Hours worked today</b>: %s\n", hours))
	lessons := "<i>empty</i>"
	if strings.TrimSpace(v.Lessons) != "" {
		lessons = escape(v.Lessons)
	}
	sb.WriteString(fmt.Sprintf("💡 <b>Wins and lessons</b>: %s\n", lessons))

	return [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			reviewButton("➖ 0.5", rvHoursDown),
			reviewButton("✏️ Hours", rvHours),
			reviewButton("➕ 0.5", rvHoursUp),
		),
		tgbotapi.NewInlineKeyboardRow(reviewButton("💡 Wins and lessons", rvLessons)),
		tgbotapi.NewInlineKeyboardRow(reviewButton("⬅️ Back", rvBack), reviewButton("Next ➡️", rvNext)),
	}
}

func renderPlanning(sb *strings.Builder, v review.View, question *review.SequenceQuestion) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton

	sb.WriteString("📈 <b>Business sequence</b>\n")
	if question != nil {
		sb.WriteString(escape(question.Prompt) + "\n\n")
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(reviewButton("Yes", rvYes), reviewButton("No", rvNo)))
	} else {
		sb.WriteString(fmt.Sprintf("Focus: <b>%s</b>\n⭐️ %s\n\n", v.Stage, escape(v.PriorityTask)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(reviewButton("🔁 Re-answer", rvRestage)))
	}

	sb.WriteString(fmt.Sprintf("🔥 <b>Set your non-negotiables</b> (%d/%d)\n", len(v.Pending), review.MaxTomorrowTasks))
	if len(v.Pending) == 0 {
		sb.WriteString("<i>none yet</i>\n")
	}
	suggested := v.PriorityTask != ""
	for i, task := range v.Pending {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, escape(task.Text)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			reviewButton(fmt.Sprintf("❌ %d. %s", i+1, shortTitle(task.Text, 30)), rvRemove, task.ID),
		))
		if task.Text == v.PriorityTask {
			suggested = false
		}
	}
	if len(v.Pending) < review.MaxTomorrowTasks {
		row := tgbotapi.NewInlineKeyboardRow(reviewButton("➕ Add task", rvAdd))
		if suggested {
			row = append(row, reviewButton("⭐️ Add suggested", rvAddSuggested))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(reviewButton("⬅️ Back", rvBack), reviewButton("✅ Submit review", rvSubmit)))
	return rows
}

func renderSubmitted(plan *model.DailyPlan) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎉 <b>Review saved</b> · %s\n", plan.Date))
	if len(plan.NonNegotiables) == 0 {
		sb.WriteString("No non-negotiables planned for tomorrow.\n")
	} else {
		sb.WriteString("Tomorrow's non-negotiables:\n")
		for _, item := range plan.NonNegotiables {
			sb.WriteString(fmt.Sprintf("• %s\n", escape(item.Title)))
		}
	}
	if plan.PriorityTask != "" {
		sb.WriteString(fmt.Sprintf("\n⭐️ Priority: %s", escape(plan.PriorityTask)))
	}
	return strings.TrimSpace(sb.String())
}
