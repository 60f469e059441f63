package chat

import (
	"strings"

	"golang.org/x/net/html"

	"recipe-chatbot/internal/pkg/common"
)

// Normalize 將供應商的原始食譜轉換為 RecipeSummary
func Normalize(raw *RawRecipe) (RecipeSummary, error) {
	if raw == nil {
		return RecipeSummary{}, common.ErrProviderError.Wrap("invalid recipe record", common.ErrMissingField.Wrap("empty recipe record", nil))
	}

	var missing []string
	if raw.Title == nil || strings.TrimSpace(*raw.Title) == "" {
		missing = append(missing, "title")
	}
	if raw.Summary == nil {
		missing = append(missing, "summary")
	}
	if raw.SourceURL == nil || strings.TrimSpace(*raw.SourceURL) == "" {
		missing = append(missing, "sourceUrl")
	}
	if len(missing) > 0 {
		missingErr := common.ErrMissingField.Wrap("recipe record is missing "+strings.Join(missing, ", "), nil)
		return RecipeSummary{}, common.ErrProviderError.Wrap("invalid recipe record", missingErr)
	}

	return RecipeSummary{
		Dish:      *raw.Title,
		Summary:   StripHTML(*raw.Summary),
		SourceURL: *raw.SourceURL,
	}, nil
}

// StripHTML 移除所有標籤，只保留文字內容（實體會被解碼）。
// 結尾未閉合的標籤會被整段捨棄。
func StripHTML(s string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
