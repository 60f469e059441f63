package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RecipeID 供應商食譜識別碼，JSON 中可能是數字或字串
type RecipeID string

// UnmarshalJSON 同時接受數字與字串
func (id *RecipeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecipeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("recipe id must be a number or string: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("invalid recipe id %q: %w", n, err)
	}
	*id = RecipeID(n.String())
	return nil
}

func (id RecipeID) String() string {
	return string(id)
}
