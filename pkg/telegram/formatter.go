package telegram

import (
	"fmt"
	"sort"
	"strings"

	"golang-market-calendar/internal/entity"
)

// FormatRefreshSummary renders a refresh cycle result as a Markdown message.
func FormatRefreshSummary(snapshot *entity.Snapshot, outcome string) string {
	var b strings.Builder

	icon := "✅"
	if outcome != "success" {
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s *日历刷新完成* (%s)\n", icon, outcome))
	b.WriteString(fmt.Sprintf("事件总数: %d\n", len(snapshot.Events)))
	if !snapshot.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("更新时间: %s\n", snapshot.UpdatedAt.UTC().Format("2006-01-02 15:04:05")))
	}

	sources := make([]string, 0, len(snapshot.SourceStats))
	for source := range snapshot.SourceStats {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		stat := snapshot.SourceStats[source]
		line := fmt.Sprintf("- `%s`: ok=%d error=%d", source, stat.OK, stat.Error)
		if stat.LastError != "" {
			line += fmt.Sprintf(" (%s)", stat.LastError)
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}
