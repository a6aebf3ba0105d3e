package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"meal-rotation/internal/app"
	"meal-rotation/internal/metrics"
	"meal-rotation/internal/planner"
	"meal-rotation/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	actionReroll = "reroll"
	actionToggle = "toggle"
)

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatPlanMarkdown(meals []app.PlannedMeal) string {
	var pb strings.Builder
	pb.WriteString("📅 *Meal Plan*\n\n")
	if len(meals) == 0 {
		pb.WriteString("_Nothing planned. Add some recipes first._\n")
		return pb.String()
	}

	for _, m := range meals {
		fmt.Fprintf(&pb, "*%s* %s: %s", m.Item.Date.Format("Mon"), planner.DateKey(m.Item.Date), esc(m.Title))
		if m.Item.IsCooked {
			pb.WriteString(" ✅")
		}
		if m.Item.Rating != nil {
			fmt.Fprintf(&pb, " ⭐%.1f", *m.Item.Rating)
		}
		fmt.Fprintf(&pb, "\n_meal %d_\n", m.Item.ID)
	}
	return pb.String()
}

func planKeyboard(meals []app.PlannedMeal) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range meals {
		if m.Item.IsCooked {
			continue
		}
		label := fmt.Sprintf("🔄 %s", m.Item.Date.Format("Mon 02"))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackData(actionReroll, m.Item.ID)),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func formatShoppingMarkdown(items []shopping.Item) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	if len(items) == 0 {
		sb.WriteString("_Nothing to buy._\n")
		return sb.String()
	}
	for _, it := range items {
		mark := "•"
		if it.Checked {
			mark = "☑️"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, esc(formatQuantity(it)))
	}
	return sb.String()
}

func shoppingKeyboard(items []shopping.Item) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range items {
		label := "⬜ " + it.Name
		if it.Checked {
			label = "✅ " + it.Name
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackData(actionToggle, it.ID)),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// callbackData fits well under Telegram's 64 byte limit.
func callbackData(action string, id int64) string {
	return action + "|" + strconv.FormatInt(id, 10)
}

func formatQuantity(it shopping.Item) string {
	qty := strconv.FormatFloat(it.Quantity, 'f', -1, 64)
	if it.Unit == "" {
		return fmt.Sprintf("%s %s", qty, it.Name)
	}
	return fmt.Sprintf("%s %s %s", qty, it.Unit, it.Name)
}

func formatStatsMarkdown(stats []planner.RecipeStats) string {
	var sb strings.Builder
	sb.WriteString("📈 *Recipe Stats*\n\n")
	if len(stats) == 0 {
		sb.WriteString("_No recipes yet._\n")
		return sb.String()
	}
	for _, s := range stats {
		fmt.Fprintf(&sb, "*%s*: planned %d, cooked %d", esc(s.Title), s.Planned, s.Cooked)
		if s.Rated > 0 {
			fmt.Fprintf(&sb, ", ⭐%.1f", s.AverageRating)
		}
		if !s.LastPlanned.IsZero() {
			fmt.Fprintf(&sb, ", last %s", planner.DateKey(s.LastPlanned))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatUsageReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Database: %s\n", health.DatabaseSize())
	fmt.Fprintf(&sb, "• Backups: %d files, %s\n", health.BackupFiles, health.BackupSize())
	return sb.String()
}
