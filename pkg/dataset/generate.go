// pkg/dataset/generate.go

package dataset

import (
	"fmt"
	"math/rand"
	"time"

	"AveList/pkg/chunk"
)

var (
	names       = []string{"Zhang San", "Li Si", "Wang Wu", "Zhao Liu", "Qian Qi", "Sun Ba", "Zhou Jiu", "Wu Shi"}
	departments = []string{"Engineering", "Product", "Operations", "Marketing", "Design", "Finance"}
	states      = []string{"in progress", "done", "todo"}
	priorities  = []string{"high", "medium", "low"}
)

// Generate builds n items. The i-th item is stamped n-i seconds before epoch,
// so the list is in chronological order.
func Generate(n int, seed int64, epoch time.Time) []chunk.Item {
	rnd := rand.New(rand.NewSource(seed))
	base := epoch.UnixMilli()
	items := make([]chunk.Item, n)
	for i := 0; i < n; i++ {
		name := names[i%len(names)]
		items[i] = chunk.Item{
			ID:        fmt.Sprintf("item-%d", i),
			Title:     fmt.Sprintf("%s's project %d", name, i+1),
			Content:   fmt.Sprintf("Details of project %d, with its basic information and notes.", i+1),
			Timestamp: base - int64(n-i)*1000,
			Fields: map[string]interface{}{
				"department": departments[i%len(departments)],
				"status":     states[i%3],
				"priority":   priorities[i%3],
				"author":     name,
				"views":      rnd.Intn(1000),
				"likes":      rnd.Intn(100),
			},
		}
	}
	return items
}
