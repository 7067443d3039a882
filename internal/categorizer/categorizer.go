// Package categorizer provides the keyword index that maps free text onto the
// canonical category set. Matching is case-insensitive and substring-based
// over mixed Latin and Cyrillic keyword sets; the first category in
// declaration order wins and there is no scoring.
package categorizer

import (
	"strings"

	"finbot/internal/logging"
	"finbot/internal/models"
)

// CategoryConfig binds one canonical category name to its keyword set.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Index resolves text to a canonical category by keyword lookup.
// It holds static data only; Categorize never performs I/O, so repeated calls
// with identical text always return the same category.
type Index struct {
	categories []CategoryConfig
	logger     logging.Logger
}

// NewIndex creates an Index over the built-in category keyword sets.
func NewIndex(logger logging.Logger) *Index {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Index{
		categories: defaultCategories(),
		logger:     logger,
	}
}

// NewIndexWithCategories creates an Index over a caller-supplied category
// list, e.g. one loaded from a categories.yaml override.
func NewIndexWithCategories(categories []CategoryConfig, logger logging.Logger) *Index {
	if len(categories) == 0 {
		return NewIndex(logger)
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Index{
		categories: categories,
		logger:     logger,
	}
}

// Categorize returns the first canonical category whose keyword set has a
// substring match in text, else models.CategoryOther.
//
// Matching is deliberately substring-based rather than tokenized: a keyword
// like "bar" matches inside "barcelona". This mirrors how historical records
// were categorized; changing it would silently re-categorize existing flows.
func (ix *Index) Categorize(text string) string {
	lowered := strings.ToLower(text)

	for _, category := range ix.categories {
		for _, keyword := range category.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				ix.logger.WithFields(
					logging.Field{Key: logging.FieldCategory, Value: category.Name},
					logging.Field{Key: "keyword", Value: keyword},
				).Debug("Text categorized by keyword match")
				return category.Name
			}
		}
	}

	return models.CategoryOther
}

// CategorizeItem resolves a receipt line item using both the item name and
// the store name as match context. Unmatched items default to groceries since
// receipts overwhelmingly come from food stores.
func (ix *Index) CategorizeItem(itemName, storeName string) string {
	category := ix.Categorize(itemName + " " + storeName)
	if category == models.CategoryOther {
		return models.CategoryGroceries
	}
	return category
}

// defaultCategories returns the built-in expense keyword sets. Order matters:
// the first matching category wins.
func defaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{Name: models.CategoryAlcoholTobacco, Keywords: []string{
			"к&б", "красное и белое", "пиво", "вино", "wine", "beer", "alcohol", "iqos", "glo", "vape",
		}},
		{Name: models.CategoryGroceries, Keywords: []string{
			"пятерочка", "перекресток", "магнит", "ашан", "лента", "вкусвилл",
			"lidl", "aldi", "carrefour", "mercadona", "grocery", "supermarket",
		}},
		{Name: models.CategoryCafes, Keywords: []string{
			"кофе", "cafe", "coffee", "restaurant", "burger", "pizza", "sushi", "wolt", "glovo", "deliveroo",
		}},
		{Name: models.CategoryTransport, Keywords: []string{
			"uber", "bolt", "taxi", "метро", "автобус", "train", "bus", "metro", "ticket",
		}},
		{Name: models.CategoryCarFuel, Keywords: []string{
			"shell", "bp", "repsol", "fuel", "gas", "petrol", "parking", "парковка", "заправка",
		}},
		{Name: models.CategoryHomeUtilities, Keywords: []string{
			"ikea", "leroy", "internet", "mobile", "vodafone", "orange", "аренда", "жкх", "ремонт",
		}},
		{Name: models.CategoryHealth, Keywords: []string{
			"pharmacy", "apteka", "аптека", "doctor", "clinic", "hospital", "лекарства",
		}},
		{Name: models.CategoryClothing, Keywords: []string{
			"zara", "uniqlo", "mango", "amazon", "ozon", "wb", "wildberries", "asos", "одежда", "обувь",
		}},
		{Name: models.CategoryEntertainment, Keywords: []string{
			"netflix", "spotify", "steam", "cinema", "кино", "театр", "youtube", "подписка",
		}},
	}
}
