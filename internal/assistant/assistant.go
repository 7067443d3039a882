// Package assistant answers free-form finance questions through Gemini,
// grounding every reply in the user's recent spending summary and the last
// turns of the conversation.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"finbot/internal/logging"
	"finbot/internal/models"
	"finbot/internal/stats"
)

const (
	defaultModel = "gemini-1.5-flash"

	// Conversation turns replayed into each request.
	historyLimit = 10
)

// ChatStore persists and replays conversation turns.
type ChatStore interface {
	AppendChatMessage(ctx context.Context, message *models.ChatMessage) error
	RecentChatMessages(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error)
}

// Reporter provides the spending summary the assistant grounds its answers in.
type Reporter interface {
	Report(ctx context.Context, userID int64) (stats.Report, error)
}

// SubscriptionLister provides the user's recurring obligations for the same
// purpose.
type SubscriptionLister interface {
	ListSubscriptions(ctx context.Context, userID int64) ([]models.SubscriptionRecord, error)
}

// Assistant is the Gemini-backed conversational layer.
type Assistant struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	store         ChatStore
	reporter      Reporter
	subscriptions SubscriptionLister
	logger        logging.Logger
}

// New creates an assistant. The Gemini client is initialized eagerly so a bad
// API key fails at startup rather than on the first question.
func New(ctx context.Context, apiKey, modelName string, store ChatStore, reporter Reporter, subscriptions SubscriptionLister, logger logging.Logger) (*Assistant, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("assistant API key is required")
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	if modelName == "" {
		modelName = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	return &Assistant{
		client:        client,
		model:         model,
		store:         store,
		reporter:      reporter,
		subscriptions: subscriptions,
		logger:        logger,
	}, nil
}

// Close releases the Gemini client.
func (a *Assistant) Close() error {
	return a.client.Close()
}

const systemInstruction = `Ты финансовый помощник в приложении для учёта расходов.
Отвечай кратко и по делу, на языке вопроса.
Используй сводку трат пользователя, когда она относится к вопросу.
Не выдумывай транзакции, которых нет в сводке.`

// Ask answers one user question. Both the question and the reply are stored
// so the next turn sees them in history.
func (a *Assistant) Ask(ctx context.Context, userID int64, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question must not be empty")
	}

	history, err := a.store.RecentChatMessages(ctx, userID, historyLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load chat history: %w", err)
	}

	session := a.model.StartChat()
	session.History = toGenaiHistory(history)

	prompt := question
	if report, err := a.reporter.Report(ctx, userID); err == nil {
		subs, err := a.subscriptions.ListSubscriptions(ctx, userID)
		if err != nil {
			a.logger.WithError(err).Warn("Answering without subscription list")
		}
		prompt = financialContext(report, subs) + "\n\nВопрос: " + question
	} else {
		a.logger.WithError(err).Warn("Answering without spending summary")
	}

	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini API")
	}
	answer := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	for _, message := range []*models.ChatMessage{
		{UserID: userID, Role: models.RoleUser, Content: question},
		{UserID: userID, Role: models.RoleAssistant, Content: answer},
	} {
		if err := a.store.AppendChatMessage(ctx, message); err != nil {
			// History is a convenience; the answer still goes back.
			a.logger.WithError(err).Warn("Failed to persist chat message")
		}
	}

	a.logger.WithFields(
		logging.Field{Key: logging.FieldUserID, Value: userID},
	).Info("Assistant answered question")
	return answer, nil
}

// financialContext renders the thirty-day summary and subscription list the
// answer should be grounded in.
func financialContext(report stats.Report, subs []models.SubscriptionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Финансовая сводка за %d дней:\n", report.PeriodDays)
	fmt.Fprintf(&b, "Баланс: %s\nДоход: %s\nРасход: %s\nСредние траты в день: %s\n",
		report.Balance, report.TotalIncome, report.TotalExpense, report.DailyAverage)

	b.WriteString("Топ категорий расходов:\n")
	if len(report.TopCategories) == 0 {
		b.WriteString("  (нет данных)\n")
	}
	for _, cat := range report.TopCategories {
		fmt.Fprintf(&b, "  - %s: %s\n", cat.Category, cat.Total)
	}

	b.WriteString("Подписки:\n")
	if len(subs) == 0 {
		b.WriteString("  (нет)\n")
	}
	for _, sub := range subs {
		fmt.Fprintf(&b, "  - %s: %s %s\n", sub.Name, sub.Amount, sub.Currency)
	}

	fmt.Fprintf(&b, "Транзакций за период: %d", report.Count)
	return b.String()
}

// toGenaiHistory converts stored turns into the Gemini chat history shape.
func toGenaiHistory(messages []models.ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, message := range messages {
		role := "user"
		if message.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(message.Content)},
		})
	}
	return history
}
