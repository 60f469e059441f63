package chat

// blockedItem 不該出現在冰箱裡的東西與對應回覆
type blockedItem struct {
	Item  string
	Reply string
}

// fridgeBlocklist 依序檢查，先命中者優先
var fridgeBlocklist = []blockedItem{
	{Item: "dog", Reply: "Hell no, please get your dog out of your fridge! That is not the right place for him!"},
	{Item: "cat", Reply: "You don't put your cat in the fridge mate! What's wrong with you?"},
}

// CheckBlocklist 返回第一個命中的特殊回覆
func CheckBlocklist(items []string) (string, bool) {
	for _, blocked := range fridgeBlocklist {
		for _, item := range items {
			if item == blocked.Item {
				return blocked.Reply, true
			}
		}
	}
	return "", false
}
