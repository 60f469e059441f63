package chat

// IncomingMessage 單則聊天訊息
type IncomingMessage struct {
	SenderName string
	Text       string

	// 傳輸層中繼資料，只用於回覆關聯與去重
	ChatID    int64
	MessageID int
	UpdateID  int
}

// IntentKind 訊息意圖種類
type IntentKind int

const (
	// IntentUnrecognized 無法辨識
	IntentUnrecognized IntentKind = iota
	// IntentRandomRecipe 請求隨機食譜
	IntentRandomRecipe
	// IntentInventory 宣告冰箱內容
	IntentInventory
)

// String 返回意圖名稱
func (k IntentKind) String() string {
	switch k {
	case IntentRandomRecipe:
		return "random_recipe"
	case IntentInventory:
		return "inventory"
	default:
		return "unrecognized"
	}
}

// Intent 分類結果，Tags 僅用於隨機食譜，Items 僅用於食材宣告
type Intent struct {
	Kind  IntentKind
	Tags  []string
	Items []string
}

// RecipeSummary 正規化後的食譜摘要
type RecipeSummary struct {
	Dish      string `json:"dish"`
	Summary   string `json:"summary"`
	SourceURL string `json:"source_url"`
}

// RawRecipe 供應商回傳的單筆食譜，欄位缺失時為 nil
type RawRecipe struct {
	ID        RecipeID `json:"id,omitempty"`
	Title     *string  `json:"title"`
	Summary   *string  `json:"summary"`
	SourceURL *string  `json:"sourceUrl"`
}

// IngredientMatch findByIngredients 的單筆結果
type IngredientMatch struct {
	ID    RecipeID `json:"id"`
	Title string   `json:"title,omitempty"`
}

// OutcomeKind 回覆結果種類
type OutcomeKind int

const (
	OutcomeUnrecognized OutcomeKind = iota
	OutcomeSuccess
	OutcomeNoResults
	OutcomeProviderError
	OutcomeSpecialCase
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUnrecognized:
		return "unrecognized"
	case OutcomeSuccess:
		return "success"
	case OutcomeNoResults:
		return "no_results"
	case OutcomeProviderError:
		return "provider_error"
	case OutcomeSpecialCase:
		return "special_case"
	default:
		return "unknown"
	}
}

// Variant 區分隨機與食材兩條路徑的措辭
type Variant int

const (
	VariantRandom Variant = iota
	VariantIngredients
)

// Outcome 訊息處理的最終狀態，交給 Formatter 渲染
type Outcome struct {
	Kind    OutcomeKind
	Variant Variant
	Recipe  RecipeSummary
	Text    string
}
