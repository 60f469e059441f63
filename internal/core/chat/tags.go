package chat

import "strings"

// TagVocabulary 可辨識的飲食／料理標籤，順序即輸出順序
var TagVocabulary = []string{
	"vegetarian",
	"vegan",
	"dessert",
	"keto",
	"low carb",
	"soup",
	"italian",
	"spanish",
	"mexican",
}

// ExtractTags 返回文字中出現過的標籤（不分大小寫的子字串比對）
func ExtractTags(text string) []string {
	lower := strings.ToLower(text)
	tags := make([]string, 0, len(TagVocabulary))
	for _, tag := range TagVocabulary {
		if strings.Contains(lower, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}
