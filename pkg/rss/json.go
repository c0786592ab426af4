package rss

import (
	"encoding/json"
	"fmt"
)

func unmarshalJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rss: %w", err)
	}
	return nil
}
