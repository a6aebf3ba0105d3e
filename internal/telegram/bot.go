package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"meal-rotation/internal/app"
	"meal-rotation/internal/config"
	"meal-rotation/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const messageTimeout = 2 * time.Minute

// sender is the part of the Telegram API the bot talks through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram API and the meal rotation App.
type Bot struct {
	api     sender
	app     *app.App
	cfg     *config.Config
	logger  *zap.Logger
	publish bool
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, logger *zap.Logger, a *app.App) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	logger.Info("Authorized on account", zap.String("username", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("Webhook set", zap.String("response", resp.Description))

	return newBot(api, cfg, logger, a), nil
}

func newBot(api sender, cfg *config.Config, logger *zap.Logger, a *app.App) *Bot {
	return &Bot{
		api:     api,
		app:     a,
		cfg:     cfg,
		logger:  logger,
		publish: cfg.RequireGhost() == nil && cfg.GhostAdminKey != "",
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("Error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	switch {
	case update.CallbackQuery != nil:
		if !b.isAllowed(update.CallbackQuery.From) {
			return
		}
		go b.handleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		if !b.isAllowed(update.Message.From) {
			return
		}
		go b.processMessage(update.Message)
	}
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if slices.Contains(b.cfg.TelegramAllowedUserIDs, from.ID) {
		return true
	}
	b.logger.Warn("Unauthorized access attempt",
		zap.Int64("user_id", from.ID),
		zap.String("username", from.UserName))
	return false
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(ctx, msg.Chat.ID, text)
		return
	}

	switch msg.Command() {
	case "plan":
		b.handlePlanCommand(ctx, msg.Chat.ID)
	case "shop":
		b.handleShopCommand(ctx, msg.Chat.ID)
	case "rate":
		b.handleRateCommand(ctx, msg.Chat.ID, msg.CommandArguments())
	case "cooked":
		b.handleCookedCommand(ctx, msg.Chat.ID, msg.CommandArguments())
	case "stats":
		b.handleStatsCommand(ctx, msg.Chat.ID)
	case "metrics":
		if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
			b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

const helpText = `🍲 *Meal Rotation*

/plan - fill the next days and show the plan
/shop - refresh and show the shopping list
/rate <meal id> <1-5> [comment] - rate a meal
/cooked <meal id> - mark a meal as cooked
/stats - recipe statistics
Send a recipe link to import it.`

func (b *Bot) handlePlanCommand(ctx context.Context, chatID int64) {
	today := b.app.Today()
	if _, err := b.app.FillWindow(ctx, today); err != nil {
		b.replyError(chatID, "Error generating plan", err)
		return
	}

	window := b.cfg.Planner.WindowDays
	meals, err := b.app.Plan(ctx, today, today.AddDate(0, 0, window-1))
	if err != nil {
		b.replyError(chatID, "Error loading plan", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatPlanMarkdown(meals))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb, ok := planKeyboard(meals); ok {
		msg.ReplyMarkup = kb
	}
	b.send(msg)
}

func (b *Bot) handleShopCommand(ctx context.Context, chatID int64) {
	items, err := b.app.RefreshShoppingList(ctx, app.Scope{From: b.app.Today()})
	if err != nil {
		b.replyError(chatID, "Error building shopping list", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatShoppingMarkdown(items))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb, ok := shoppingKeyboard(items); ok {
		msg.ReplyMarkup = kb
	}
	b.send(msg)
}

func (b *Bot) handleRateCommand(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.reply(chatID, "Usage: /rate <meal id> <1-5> [comment]")
		return
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		b.reply(chatID, "Meal id must be a number.")
		return
	}
	rating, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		b.reply(chatID, "Rating must be a number between 1 and 5.")
		return
	}

	item, err := b.app.RateMeal(ctx, id, rating, strings.Join(fields[2:], " "))
	if err != nil {
		b.replyError(chatID, "Error rating meal", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("⭐ Rated meal of *%s*: %.1f", planner.DateKey(item.Date), *item.Rating))
}

func (b *Bot) handleCookedCommand(ctx context.Context, chatID int64, args string) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		b.reply(chatID, "Usage: /cooked <meal id>")
		return
	}
	item, err := b.app.MarkCooked(ctx, id, true)
	if err != nil {
		b.replyError(chatID, "Error updating meal", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Meal of *%s* marked as cooked.", planner.DateKey(item.Date)))
}

func (b *Bot) handleStatsCommand(ctx context.Context, chatID int64) {
	stats, err := b.app.Stats(ctx)
	if err != nil {
		b.replyError(chatID, "Error loading stats", err)
		return
	}
	b.reply(chatID, formatStatsMarkdown(stats))
}

func (b *Bot) handleClipperRequest(ctx context.Context, chatID int64, url string) {
	sent, err := b.api.Send(markdownMessage(chatID, "✂️ *Clipping recipe...*"))
	if err != nil {
		b.logger.Error("Failed to send initial reply", zap.Error(err))
		return
	}

	var finalText string
	res, err := b.app.ImportRecipeFromURL(ctx, url, b.publish)
	if err != nil && res.Recipe.ID == 0 {
		b.logger.Error("Error clipping recipe", zap.String("url", url), zap.Error(err))
		finalText = errorText("Error clipping recipe", err)
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Clip failed*\n%s", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, url)))
	} else {
		verb := "Saved"
		if !res.Created {
			verb = "Updated"
		}
		finalText = fmt.Sprintf("✅ *Recipe %s!*\n\n*Title:* %s\n*Version:* %d",
			verb, tgbotapi.EscapeText(tgbotapi.ModeMarkdown, res.Recipe.Title), res.Recipe.Version)
		if res.Post != nil {
			finalText += fmt.Sprintf("\n*Post:* %s", res.Post.URL)
		}
		if err != nil {
			b.logger.Warn("Recipe saved but not published", zap.Error(err))
			finalText += "\n_Not published to the blog._"
		}
	}

	edit := tgbotapi.NewEditMessageText(chatID, sent.MessageID, finalText)
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	action, rawID, ok := strings.Cut(query.Data, "|")
	if !ok {
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return
	}

	switch action {
	case actionReroll:
		if _, err := b.app.Reroll(ctx, id); err != nil {
			b.replyError(chatID, "Error rerolling meal", err)
			return
		}
		b.handlePlanCommand(ctx, chatID)
	case actionToggle:
		if _, err := b.app.ToggleItem(ctx, id); err != nil {
			b.replyError(chatID, "Error updating item", err)
			return
		}
		items, err := b.app.ShoppingList(ctx)
		if err != nil {
			b.replyError(chatID, "Error loading shopping list", err)
			return
		}
		edit := tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, formatShoppingMarkdown(items))
		edit.ParseMode = tgbotapi.ModeMarkdown
		if kb, ok := shoppingKeyboard(items); ok {
			edit.ReplyMarkup = &kb
		}
		b.send(edit)
	}
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	usage, err := b.app.DailyUsage(ctx, 7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatUsageReport(usage, b.app.SysHealth()))
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.send(markdownMessage(b.cfg.AdminTelegramID, text))
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(markdownMessage(chatID, text))
}

func (b *Bot) replyError(chatID int64, what string, err error) {
	level := b.logger.Error
	if isUserError(err) {
		level = b.logger.Info
	}
	level(what, zap.Error(err))
	b.reply(chatID, errorText(what, err))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}

func markdownMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

func errorText(what string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", what, safeErr)
}

// isUserError tells bad input apart from failures worth an error log.
func isUserError(err error) bool {
	return errors.Is(err, planner.ErrItemNotFound) ||
		errors.Is(err, planner.ErrInvalidRating) ||
		errors.Is(err, planner.ErrEmptyCatalog)
}
