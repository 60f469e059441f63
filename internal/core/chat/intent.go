package chat

import "strings"

// Classify 依固定優先順序判斷訊息意圖：隨機食譜 > 食材宣告 > 無法辨識
func Classify(text string) Intent {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "recipe") && strings.Contains(lower, "random") {
		return Intent{Kind: IntentRandomRecipe, Tags: ExtractTags(text)}
	}

	if items, ok := ParseInventory(text); ok {
		return Intent{Kind: IntentInventory, Items: items}
	}

	return Intent{Kind: IntentUnrecognized}
}
