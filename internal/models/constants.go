package models

import "github.com/shopspring/decimal"

// Record kinds
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Canonical categories. The names are the exact labels stored with records
// and shown in the app; parsing, persistence and reporting all share them.
const (
	CategoryAlcoholTobacco = "Алкоголь и Табак"
	CategoryGroceries      = "Продукты"
	CategoryCafes          = "Кафе и Рестораны"
	CategoryTransport      = "Транспорт"
	CategoryCarFuel        = "Авто и Бензин"
	CategoryHomeUtilities  = "Дом и Связь"
	CategoryHealth         = "Здоровье и Аптека"
	CategoryClothing       = "Одежда и Шопинг"
	CategoryEntertainment  = "Развлечения"
	CategoryOther          = "Разное"
	CategoryIncome         = "Доход"
)

// Subscription periods
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Supported subscription currencies
const (
	CurrencyRUB = "RUB"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// DescriptionPlaceholder is stored when a record would otherwise have an
// empty description.
const DescriptionPlaceholder = "Запись"

// MaxAmount is the sanity ceiling for parsed amounts. Anything above it is
// treated as a corrupted OCR or parse result and rejected.
var MaxAmount = decimal.NewFromInt(10_000_000)

// canonicalCategories is the closed set of category labels a record may carry.
var canonicalCategories = map[string]struct{}{
	CategoryAlcoholTobacco: {},
	CategoryGroceries:      {},
	CategoryCafes:          {},
	CategoryTransport:      {},
	CategoryCarFuel:        {},
	CategoryHomeUtilities:  {},
	CategoryHealth:         {},
	CategoryClothing:       {},
	CategoryEntertainment:  {},
	CategoryOther:          {},
	CategoryIncome:         {},
}

// IsCanonicalCategory reports whether name is one of the closed category set.
func IsCanonicalCategory(name string) bool {
	_, ok := canonicalCategories[name]
	return ok
}

// AllowedCurrencies lists the currencies a subscription may use.
var AllowedCurrencies = map[string]struct{}{
	CurrencyRUB: {},
	CurrencyUSD: {},
	CurrencyEUR: {},
}
