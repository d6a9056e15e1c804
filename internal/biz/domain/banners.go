package domain

import (
	"strconv"
	"strings"
	"time"
)

// Banners holds the templates used to format outgoing summons
// Placeholders: {id} {text} {mention} {duration} {window} {next}
type Banners struct {
	AutoPhrase    string
	AutoHaiku     string
	ManualPhrase  string
	ManualHaiku   string
	OfflineSuffix string
	QuietWarning  string
}

// DefaultBanners returns the built-in templates
func DefaultBanners() Banners {
	return Banners{
		AutoPhrase:    "📢 **Auto-Summon #{id}** 📢\n{text}",
		AutoHaiku:     "🎋 **Auto-Haiku #{id}** 🎋\n```\n{text}\n```",
		ManualPhrase:  "📢 **MANUAL SUMMONING #{id}** 📢\n{text}",
		ManualHaiku:   "🎋 **MANUAL SUMMONING HAIKU #{id}** 🎋\n```\n{text}\n```",
		OfflineSuffix: "\n⏰ *{mention} has been offline for {duration}*",
		QuietWarning: "🌙 **Quiet hours active!**\n" +
			"⏰ Quiet hours: {window}\n" +
			"🔔 Next summon allowed at: {next}\n" +
			"💡 *Manual summons still work during quiet hours*",
	}
}

// FormatAuto formats an automatic summon, with the offline suffix if offlineFor is known
func (b Banners) FormatAuto(msg Message, mention string, offlineFor time.Duration, known bool) string {
	tmpl := b.AutoPhrase
	if msg.IsHaiku() {
		tmpl = b.AutoHaiku
	}
	out := render(tmpl, map[string]string{
		"{id}":   strconv.Itoa(msg.ID),
		"{text}": msg.Text,
	})
	if known {
		out += render(b.OfflineSuffix, map[string]string{
			"{mention}":  mention,
			"{duration}": FormatHoursMinutes(offlineFor),
		})
	}
	return out
}

// FormatManual formats a manual summon with the given text (already mention-rewritten)
func (b Banners) FormatManual(msg Message, text string) string {
	tmpl := b.ManualPhrase
	if msg.IsHaiku() {
		tmpl = b.ManualHaiku
	}
	return render(tmpl, map[string]string{
		"{id}":   strconv.Itoa(msg.ID),
		"{text}": text,
	})
}

// FormatQuietWarning formats the quiet-hours warning attached to manual summons
func (b Banners) FormatQuietWarning(q QuietHours, now time.Time) string {
	return render(b.QuietWarning, map[string]string{
		"{window}": q.String(),
		"{next}":   q.NextAllowed(now).Format("15:04"),
	})
}

func render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
