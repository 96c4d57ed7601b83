package bot

import "strings"

// Callback data is "<action>:<arg>"; Telegram caps it at 64 bytes.
const (
	cbToggleTask    = "tt"
	cbToggleHabit   = "th"
	cbTaskListDone  = "tl"
	cbHabitListDone = "hl"
	cbEditTask      = "te"
	cbEditField     = "tf"
	cbDeleteTask    = "td"
	cbConfirmTask   = "tdy"
	cbDeleteHabit   = "hd"
	cbConfirmHabit  = "hdy"
	cbDeleteProject = "pd"
	cbPickProject   = "pj"
	cbHideCompleted = "hide"
	cbShowCompleted = "show"
	cbReview        = "rv"
	cbOfferContinue = "oc"
	cbOfferDraft    = "od"
	cbDeleteOffer   = "ofd"
	cbConfirmOffer  = "ofy"
	cbCancel        = "x"
)

// Review callback arguments.
const (
	rvNext         = "next"
	rvBack         = "back"
	rvKeepWorking  = "keep"
	rvSkip         = "skip"
	rvFocusDone    = "focus"
	rvAmbient      = "amb"
	rvFocus        = "ftog"
	rvRefresh      = "refresh"
	rvToggle       = "t"
	rvHoursUp      = "h+"
	rvHoursDown    = "h-"
	rvHours        = "hours"
	rvLessons      = "lessons"
	rvYes          = "yes"
	rvNo           = "no"
	rvRestage      = "restage"
	rvAdd          = "add"
	rvAddSuggested = "addsug"
	rvRemove       = "rm"
	rvSubmit       = "submit"
)

func callbackData(action string, args ...string) string {
	return strings.Join(append([]string{action}, args...), ":")
}

// parseCallback splits data into its action and the rest.
func parseCallback(data string) (action, arg string) {
	action, arg, _ = strings.Cut(data, ":")
	return action, arg
}
