package chat

import (
	"regexp"
	"strings"
	"unicode"
)

const inventoryTrigger = "contains"

// 觸發詞後必須緊接空白，前面允許任意文字
var inventoryPattern = regexp.MustCompile(inventoryTrigger + `\s`)

// 食材清單中需要剔除的連接詞
var inventoryStopWords = map[string]bool{
	"and":            true,
	inventoryTrigger: true,
}

// LooksLikeInventory 判斷訊息是否為「冰箱裡有…」的宣告
func LooksLikeInventory(text string) bool {
	return inventoryPattern.MatchString(strings.ToLower(text))
}

// ExtractIngredients 取出第一個觸發詞之後的食材清單。
// 以空白與逗號切分，去除首尾標點，保留原順序與重複項目。
func ExtractIngredients(text string) []string {
	lower := strings.ToLower(text)
	loc := inventoryPattern.FindStringIndex(lower)
	if loc == nil {
		return nil
	}

	fields := strings.FieldsFunc(lower[loc[1]:], func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})

	items := make([]string, 0, len(fields))
	for _, f := range fields {
		item := strings.Trim(f, ",.!?")
		if item == "" || inventoryStopWords[item] {
			continue
		}
		items = append(items, item)
	}
	return items
}

// ParseInventory 組合判斷與切分，ok 為 false 表示不是食材宣告
func ParseInventory(text string) (items []string, ok bool) {
	if !LooksLikeInventory(text) {
		return nil, false
	}
	return ExtractIngredients(text), true
}
