package notifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/paprika2227/guildguard/internal/config"
	"github.com/paprika2227/guildguard/internal/logging"
	"github.com/paprika2227/guildguard/internal/models"
)

const (
	colorMitigated = 0xED4245
	colorAdvisory  = 0xFEE75C
	colorRecovered = 0x57F287
)

// Notifier renders alert payloads as embeds and delivers them to each
// guild's configured alert channel. Delivery is fire-and-forget; a guild
// with no alert channel set gets its alerts logged only.
type Notifier struct {
	session  *discordgo.Session
	profiles *config.ProfileStore
}

func New(session *discordgo.Session, profiles *config.ProfileStore) *Notifier {
	return &Notifier{session: session, profiles: profiles}
}

func (n *Notifier) Send(payload *models.AlertPayload) {
	channelID := n.profiles.GetOrCreate(payload.GuildID).AlertChannel()
	if n.session == nil || channelID == "" {
		logging.Warn("[NOTIFIER] no alert channel for guild %s: %s by %s (removed=%v)",
			payload.GuildID, payload.ThreatType, payload.ActorID, payload.ActionTaken)
		return
	}

	embed := buildEmbed(payload)
	go func() {
		_, err := n.session.ChannelMessageSendEmbed(channelID, embed)
		if err != nil {
			logging.Error("[NOTIFIER] alert delivery to guild %s failed: %v", payload.GuildID, err)
		}
	}()
}

func buildEmbed(payload *models.AlertPayload) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🛡️ Threat Detected: %s", threatTitle(payload.ThreatType)),
		Color: colorMitigated,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "👤 Actor",
				Value:  fmt.Sprintf("<@%s> (`%s`)", payload.ActorID, payload.ActorID),
				Inline: true,
			},
			{
				Name:   "⚔️ Action Taken",
				Value:  actionSummary(payload),
				Inline: true,
			},
			{
				Name:   "🕐 Timestamp",
				Value:  fmt.Sprintf("<t:%d:F>", payload.Timestamp.Unix()),
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "GuildGuard Protection",
		},
		Timestamp: payload.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}

	if counts := countsSummary(payload.Counts); counts != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "📊 Actions in Window", Value: counts, Inline: false,
		})
	}

	if payload.IsAdvisory() {
		embed.Color = colorAdvisory
		embed.Description = fmt.Sprintf(
			"Suspicious preparation pattern (confidence %d%%). No automated action taken; review recommended.",
			payload.Confidence)
		return embed
	}

	if !payload.ActionTaken {
		embed.Description = "⚠️ **Attacker NOT removed.** Manual intervention required."
		if len(payload.MissingPerms) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  "🚫 Missing Permissions",
				Value: "`" + strings.Join(payload.MissingPerms, "`, `") + "`",
			})
		}
	}

	if payload.SnapshotUsed != "" {
		embed.Color = colorRecovered
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "♻️ Recovery",
			Value: fmt.Sprintf("Restored **%d** items from snapshot `%s`", payload.RestoredCount, payload.SnapshotUsed),
		})
	}

	return embed
}

func threatTitle(threatType models.ThreatType) string {
	words := strings.Split(string(threatType), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func actionSummary(payload *models.AlertPayload) string {
	if payload.IsAdvisory() {
		return "Alert only"
	}
	if !payload.ActionTaken {
		return "**NONE (attacker not removed)**"
	}
	return fmt.Sprintf("Removed via **%s**", payload.RemovalMethod)
}

func countsSummary(counts map[models.ActionType]int) string {
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(counts))
	for actionType, n := range counts {
		parts = append(parts, fmt.Sprintf("%s × %d", actionType.String(), n))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
