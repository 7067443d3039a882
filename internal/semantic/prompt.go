package semantic

import (
	"fmt"
	"strings"

	"finbot/internal/models"
)

const entrySystemPrompt = "Ты парсер финансовых записей. Отвечай только JSON, без текста вокруг."

const receiptSystemPrompt = "Ты эксперт по распознаванию чеков. Отвечай только JSON."

// expenseCategoryList is the verbatim category enumeration embedded in
// prompts so the model can only answer within the canonical set.
var expenseCategoryList = []string{
	models.CategoryAlcoholTobacco,
	models.CategoryGroceries,
	models.CategoryCafes,
	models.CategoryTransport,
	models.CategoryCarFuel,
	models.CategoryHomeUtilities,
	models.CategoryHealth,
	models.CategoryClothing,
	models.CategoryEntertainment,
	models.CategoryOther,
}

// buildEntryPrompt creates the closed-instruction prompt for parsing one chat
// message into a transaction.
func buildEntryPrompt(text string) string {
	categories := `"` + strings.Join(expenseCategoryList, `", "`) + `"`

	return fmt.Sprintf(`Разбери сообщение пользователя о расходе или доходе и верни ТОЛЬКО JSON (без текста вокруг).

Сообщение:
%s

Формат ответа:
{
  "amount": 450.00,
  "type": "expense",
  "category": "Кафе и Рестораны",
  "description": "Кофе"
}

Правила:
1. amount - число (float), БЕЗ валюты. Если суммы нет, верни: {"error": "no_amount"}
2. type - строго "expense" или "income"
3. category для расходов - строго одна из: [%s]
4. category для доходов - строго "%s"
5. description - короткое описание на языке сообщения

Будь точным. Не придумывай сумму, которой нет в сообщении.`, text, categories, models.CategoryIncome)
}

// buildReceiptPrompt creates the prompt for extracting line items from OCR
// text of a purchase receipt. The OCR text is capped to keep the request
// within the token budget.
func buildReceiptPrompt(ocrText string) string {
	const maxOCRChars = 3000
	// Cut on rune boundaries; a byte slice could split a Cyrillic character.
	if runes := []rune(ocrText); len(runes) > maxOCRChars {
		ocrText = string(runes[:maxOCRChars])
	}

	return fmt.Sprintf(`Проанализируй текст чека и верни ТОЛЬКО JSON (без текста вокруг).

Текст с чека:
%s

Формат ответа:
{
  "items": [
    {"name": "Хлеб белый", "amount": 45.50},
    {"name": "Молоко 3.2%%", "amount": 89.00}
  ],
  "total": 134.50,
  "store": "Пятёрочка"
}

Правила:
1. Если это НЕ чек, верни: {"error": "not_a_receipt"}
2. Если невозможно распознать товары, верни: {"error": "unreadable"}
3. items - только товары с ценами
4. amount - число (float), БЕЗ валюты
5. Игнорируй служебные строки (итого, оплачено, сдача)
6. total - общая сумма (ищи "итого", "сумма", "total")
7. store - название магазина (первые строки)

Будь точным. Лучше пропусти товар, чем добавь ошибочный.`, ocrText)
}
