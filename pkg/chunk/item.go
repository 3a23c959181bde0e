// pkg/chunk/item.go

package chunk

import (
	"encoding/json"
	"sort"
)

// Item is one record of the list. Keys other than the four known ones are
// kept in Fields and written back unchanged.
type Item struct {
	ID        string
	Title     string
	Content   string
	Timestamp int64
	Fields    map[string]interface{}
}

var knownKeys = map[string]bool{"id": true, "title": true, "content": true, "timestamp": true}

func (it Item) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(it.Fields)+4)
	for k, v := range it.Fields {
		if !knownKeys[k] {
			m[k] = v
		}
	}
	m["id"] = it.ID
	m["title"] = it.Title
	m["content"] = it.Content
	m["timestamp"] = it.Timestamp
	return json.Marshal(m)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var known struct {
		ID        string  `json:"id"`
		Title     string  `json:"title"`
		Content   string  `json:"content"`
		Timestamp float64 `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	*it = Item{
		ID:        known.ID,
		Title:     known.Title,
		Content:   known.Content,
		Timestamp: int64(known.Timestamp),
	}
	for k, v := range all {
		if knownKeys[k] {
			continue
		}
		if it.Fields == nil {
			it.Fields = make(map[string]interface{}, len(all))
		}
		it.Fields[k] = v
	}
	return nil
}

// FieldNames returns the passthrough keys in sorted order.
func (it Item) FieldNames() []string {
	names := make([]string, 0, len(it.Fields))
	for k := range it.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
