package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"vegan dessert", "Give me a vegan dessert", []string{"vegan", "dessert"}},
		{"order follows vocabulary", "dessert that is VEGAN", []string{"vegan", "dessert"}},
		{"multi word tag", "Something Low Carb and mexican please", []string{"low carb", "mexican"}},
		{"no tags", "just food", []string{}},
		{"substring counts", "vegetarian", []string{"vegetarian"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTags(tt.text))
		})
	}
}

func TestExtractTags_Idempotent(t *testing.T) {
	text := "random italian soup recipe"
	assert.Equal(t, ExtractTags(text), ExtractTags(text))
}

func TestParseInventory(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   []string
		wantOK bool
	}{
		{"fridge sentence", "My fridge contains tomato, egg, rice and oat.", []string{"tomato", "egg", "rice", "oat"}, true},
		{"trigger at start", "contains milk and bread", []string{"milk", "bread"}, true},
		{"single item", "The fridge contains cheese.", []string{"cheese"}, true},
		{"zero items", "My fridge contains .", []string{}, true},
		{"uppercase", "MY FRIDGE CONTAINS Eggs, Potato AND Paprika.", []string{"eggs", "potato", "paprika"}, true},
		{"commas without spaces", "fridge contains ham,cheese,bread", []string{"ham", "cheese", "bread"}, true},
		{"duplicates preserved", "contains egg, egg and egg", []string{"egg", "egg", "egg"}, true},
		{"repeated trigger word dropped", "it contains apples and contains pears", []string{"apples", "pears"}, true},
		{"no trigger", "I have tomatoes and eggs", nil, false},
		{"trigger without whitespace", "my fridge contains", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, ok := ParseInventory(tt.text)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, items)
			} else {
				assert.Nil(t, items)
			}
		})
	}
}

func TestParseInventory_Idempotent(t *testing.T) {
	text := "My fridge contains tomato, egg, rice and oat."
	first, ok1 := ParseInventory(text)
	second, ok2 := ParseInventory(text)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}

func TestLooksLikeInventory(t *testing.T) {
	assert.True(t, LooksLikeInventory("My fridge contains tomato"))
	assert.True(t, LooksLikeInventory("fridge CONTAINS\tmilk"))
	assert.False(t, LooksLikeInventory("blah blah"))
	assert.False(t, LooksLikeInventory(""))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantKind  IntentKind
		wantTags  []string
		wantItems []string
	}{
		{
			name:     "random recipe with tag",
			text:     "Give me a random recipe that is vegetarian.",
			wantKind: IntentRandomRecipe,
			wantTags: []string{"vegetarian"},
		},
		{
			name:     "random recipe without tag",
			text:     "RANDOM Recipe please",
			wantKind: IntentRandomRecipe,
			wantTags: []string{},
		},
		{
			name:     "random inside another word",
			text:     "any randomness in a recipe?",
			wantKind: IntentRandomRecipe,
			wantTags: []string{},
		},
		{
			name:      "inventory",
			text:      "My fridge contains tomato, egg, rice and oat.",
			wantKind:  IntentInventory,
			wantItems: []string{"tomato", "egg", "rice", "oat"},
		},
		{
			name:     "random wins over inventory",
			text:     "random recipe, my fridge contains vegan cheese and bread",
			wantKind: IntentRandomRecipe,
			wantTags: []string{"vegan"},
		},
		{
			name:     "only recipe",
			text:     "recipe for lasagne",
			wantKind: IntentUnrecognized,
		},
		{
			name:     "gibberish",
			text:     "blah blah",
			wantKind: IntentUnrecognized,
		},
		{
			name:     "empty",
			text:     "",
			wantKind: IntentUnrecognized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantTags, got.Tags)
			assert.Equal(t, tt.wantItems, got.Items)
		})
	}
}

func TestClassify_Total(t *testing.T) {
	inputs := []string{"", " ", "\n", "contains", "random", "recipe", "🍕🍕", "contains  x", "Ünïcödé contains ÄPFEL"}
	for _, in := range inputs {
		kind := Classify(in).Kind
		assert.Contains(t, []IntentKind{IntentRandomRecipe, IntentInventory, IntentUnrecognized}, kind, "input %q", in)
	}
}

func TestCheckBlocklist(t *testing.T) {
	reply, hit := CheckBlocklist([]string{"milk", "dog"})
	require.True(t, hit)
	assert.Contains(t, reply, "dog out of your fridge")

	reply, hit = CheckBlocklist([]string{"cat", "fish"})
	require.True(t, hit)
	assert.Contains(t, reply, "cat in the fridge")

	reply, hit = CheckBlocklist([]string{"cat", "dog"})
	require.True(t, hit)
	assert.Contains(t, reply, "dog", "dog is checked before cat")

	_, hit = CheckBlocklist([]string{"hotdog", "catfish"})
	assert.False(t, hit)
}
