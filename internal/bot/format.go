package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"daily-review/internal/model"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// clock renders a countdown as mm:ss.
func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func formatTask(task model.Task, projects map[string]string, now time.Time) string {
	var b strings.Builder
	icon := "⬜️"
	if task.IsCompleted() {
		icon = "✅"
	}
	flag := ""
	if task.IsNonNegotiable {
		flag = " 🔥"
	}
	b.WriteString(fmt.Sprintf("%s %s%s", icon, escape(normalizeTitle(task.Text)), flag))
	if task.ProjectID != nil {
		if name, ok := projects[*task.ProjectID]; ok {
			b.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(name)))
		}
	}
	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		switch {
		case !task.IsCompleted() && d.Before(model.StartOfDay(now, now.Location())):
			b.WriteString(fmt.Sprintf("\n   ⏰ %s · <b>overdue</b>", d.Format(model.DateLayout)))
		default:
			b.WriteString(fmt.Sprintf("\n   ⏰ %s", d.Format(model.DateLayout)))
		}
	}
	if task.Priority == model.PriorityImportant && !task.IsNonNegotiable {
		b.WriteString("\n   ⭐️ important")
	}
	b.WriteByte('\n')
	return b.String()
}

func formatHabit(habit model.Habit, now time.Time) string {
	var b strings.Builder
	icon := "⬜️"
	if model.CompletedOn(habit.Completions, now) {
		icon = "✅"
	}
	flag := ""
	if habit.IsNonNegotiable {
		flag = " 🔥"
	}
	b.WriteString(fmt.Sprintf("%s %s%s\n", icon, escape(normalizeTitle(habit.Name)), flag))
	b.WriteString(fmt.Sprintf("   🔁 %s · streak %d (best %d)\n", describeFrequency(habit.Frequency), habit.Streak.Current, habit.Streak.Longest))
	return b.String()
}

var weekdayShort = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func describeFrequency(f model.Frequency) string {
	if f.Type == "" || f.Type == model.FrequencyDaily || len(f.DaysOfWeek) == 0 {
		return "every day"
	}
	names := make([]string, 0, len(f.DaysOfWeek))
	for _, d := range f.DaysOfWeek {
		if d >= 0 && d < len(weekdayShort) {
			names = append(names, weekdayShort[d])
		}
	}
	return strings.Join(names, ", ")
}

// parseDays accepts "1,3,5" or "mon wed fri".
func parseDays(text string) ([]int, error) {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("no days given")
	}
	seen := make(map[int]bool)
	var days []int
	for _, f := range fields {
		day := -1
		if n, err := strconv.Atoi(f); err == nil {
			day = n
		} else {
			for i, name := range weekdayShort {
				if strings.HasPrefix(f, strings.ToLower(name)) {
					day = i
				}
			}
		}
		if day < 0 || day > 6 {
			return nil, fmt.Errorf("unknown day %q", f)
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	return days, nil
}

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDueDate understands today, tomorrow, YYYY-MM-DD and casual English
// like "next friday" or "in 3 days", all in loc.
func parseDueDate(text string, now time.Time, loc *time.Location) (*time.Time, error) {
	value := strings.TrimSpace(strings.ToLower(text))
	today := model.StartOfDay(now, loc)
	switch value {
	case strings.ToLower(btnToday):
		return &today, nil
	case strings.ToLower(btnTomorrow):
		tomorrow := today.AddDate(0, 0, 1)
		return &tomorrow, nil
	}
	if parsed, err := time.ParseInLocation(model.DateLayout, value, loc); err == nil {
		return &parsed, nil
	}

	r, err := dateParser.Parse(value, now.In(loc))
	if err != nil {
		return nil, fmt.Errorf("parse due date %q: %w", text, err)
	}
	if r == nil {
		return nil, fmt.Errorf("parse due date %q: no date found", text)
	}
	due := model.StartOfDay(r.Time, loc)
	return &due, nil
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}

func parseYesNo(text string) (yes bool, ok bool) {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case "yes", "y", "+":
		return true, true
	case "no", "n", "-":
		return false, true
	}
	return false, false
}
