package storage

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

func encodeCartState(state entity.CartState) ([]byte, error) {
	if state.Items == nil {
		state.Items = map[string]entity.CartItem{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("cart state encode: %w", err)
	}
	return data, nil
}

func decodeCartState(data []byte) (entity.CartState, error) {
	state := entity.NewCartState()
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("cart state decode: %w", err)
	}
	if state.Items == nil {
		state.Items = map[string]entity.CartItem{}
	}
	return state, nil
}

// parseVersion raqamli versiyani o'qish; "" -> 0 (partition yo'q)
func parseVersion(v string) (int64, bool) {
	if v == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func formatVersion(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
