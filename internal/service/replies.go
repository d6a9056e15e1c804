package service

import (
	"fmt"
	"strings"

	"github.com/summonlabs/summoner/internal/biz/domain"
)

// FormatStats renders the stats reply
func FormatStats(r *StatsReport) string {
	last := "Never"
	if r.LastAutoSummon != nil {
		last = r.LastAutoSummon.Format("2006-01-02 15:04:05")
	}
	quiet := "☀️ INACTIVE"
	if r.QuietActive {
		quiet = "🌙 ACTIVE"
	}

	var sb strings.Builder
	sb.WriteString("📊 **Summoning Stats** 📊\n")
	sb.WriteString(fmt.Sprintf("📝 Total messages: %d (%d phrases, %d haikus)\n", r.Total, r.Phrases, r.Haikus))
	sb.WriteString(fmt.Sprintf("✅ Used messages: %d\n", r.Used))
	sb.WriteString(fmt.Sprintf("⏳ Remaining: %d\n", r.Remaining))
	sb.WriteString(fmt.Sprintf("🕐 Last auto-summon: %s\n", last))
	sb.WriteString(fmt.Sprintf("📜 Summons sent: %d auto, %d manual\n", r.AutoSent, r.ManualSent))
	sb.WriteString(fmt.Sprintf("🔕 Quiet hours (%02d:00-%02d:00): %s", r.QuietHoursStart, r.QuietHoursEnd, quiet))
	return sb.String()
}

// FormatStatus renders the watched user status reply
func FormatStatus(r *StatusReport) string {
	name := r.Name
	if name == "" {
		name = domain.MentionFor(r.UserID)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s **%s is currently: %s**", r.Status.Emoji(), name, r.Status.Describe()))
	if r.Status.IsOffline() && r.OfflineFor != "" {
		sb.WriteString("\n⏰ Offline for: " + r.OfflineFor)
		if r.SchedulerActive {
			sb.WriteString("\n🔮 Auto-summoning: ACTIVE")
		} else {
			sb.WriteString("\n🔮 Auto-summoning: INACTIVE")
		}
	}
	if r.QuietActive {
		sb.WriteString("\n🌙 Quiet hours active until " + r.NextAllowed)
	}
	return sb.String()
}

// FormatQuietHours renders the quiet-hours reply
func FormatQuietHours(r *QuietReport) string {
	if r.Active {
		return "🌙 **Quiet hours are ACTIVE**\n" +
			"⏰ Quiet hours: " + r.Window + "\n" +
			"🔔 Next summon allowed: " + r.NextAllowed + "\n" +
			"⏳ Time remaining: " + r.Remaining
	}
	return "☀️ **Quiet hours are INACTIVE**\n" +
		"⏰ Quiet hours: " + r.Window + "\n" +
		"✅ Auto-summoning is allowed right now!"
}

// FormatReload renders the reload reply
func FormatReload(r *ReloadReport) string {
	var sb strings.Builder
	if r.Forced {
		sb.WriteString("✅ **Forced fresh reload from CSV files!**\n")
	} else {
		sb.WriteString("✅ **Messages reloaded from CSV files!**\n")
	}
	sb.WriteString(fmt.Sprintf("📝 Total: %d (%d phrases, %d haikus)\n", r.Total, r.Phrases, r.Haikus))
	if r.Forced {
		sb.WriteString("🗑️ Deleted old cache files\n")
	}
	sb.WriteString("🔄 Used message list reset")
	return sb.String()
}

// FormatSample renders the debug sample reply
func FormatSample(msgs []domain.Message) string {
	if len(msgs) == 0 {
		return "❌ No messages loaded!"
	}
	var sb strings.Builder
	sb.WriteString("🔍 **Debug: Sample loaded messages**\n")
	for _, m := range msgs {
		sb.WriteString(fmt.Sprintf("\n**ID %d (%s):**\n", m.ID, m.Kind))
		sb.WriteString("```" + truncate(m.Text, debugTextLimit) + "```")
	}
	return sb.String()
}

// FormatRecheck renders the forced status check reply
func FormatRecheck(r *RecheckReport) string {
	return fmt.Sprintf("🔍 **Status check complete!**\nPrevious: %s\nCurrent: %s\nSummoning active: %t",
		r.Previous, r.Current, r.SchedulerActive)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
