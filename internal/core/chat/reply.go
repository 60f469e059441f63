package chat

import "fmt"

const (
	randomSuccessTemplate     = "What about some %s today. %s You can find the full recipe here: %s."
	ingredientSuccessTemplate = "You could make some %s today. %s The full recipe is right here: %s."

	noRandomResultsReply     = "I couldn't find any recipe based on your given tags. Maybe ask for a more general recipe."
	noIngredientResultsReply = "I couldn't find any recipe based on your given ingredients. Maybe ask with less ingredients or just ask for a random recipe."
	providerErrorReply       = "It seems like something went wrong. I am really sorry."
	unrecognizedReply        = "I can not quite understand you. Try asking me for a random recipe or tell me whats left in your fridge."
)

// FormatReply 將處理結果渲染成最終回覆
func FormatReply(outcome Outcome, name string) string {
	return fmt.Sprintf("Hello %s! %s", name, replyBody(outcome))
}

func replyBody(outcome Outcome) string {
	switch outcome.Kind {
	case OutcomeSuccess:
		r := outcome.Recipe
		if outcome.Variant == VariantIngredients {
			return fmt.Sprintf(ingredientSuccessTemplate, r.Dish, r.Summary, r.SourceURL)
		}
		return fmt.Sprintf(randomSuccessTemplate, r.Dish, r.Summary, r.SourceURL)
	case OutcomeNoResults:
		if outcome.Variant == VariantIngredients {
			return noIngredientResultsReply
		}
		return noRandomResultsReply
	case OutcomeProviderError:
		return providerErrorReply
	case OutcomeSpecialCase:
		return outcome.Text
	default:
		return unrecognizedReply
	}
}
