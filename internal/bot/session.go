package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/paprika2227/guildguard/internal/logging"
)

// Session wraps the gateway connection. One per process.
type Session struct {
	discord *discordgo.Session
	BotID   string
}

var globalSession *Session

// Initialize creates the Discord session with the intents the detection
// pipeline needs (guild structure, moderation, audit log, and messages for
// the spam-channel guard).
func Initialize(token string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentGuildModeration |
		discordgo.IntentsGuildWebhooks |
		discordgo.IntentsGuildEmojis |
		discordgo.IntentsGuildMessages

	globalSession = &Session{discord: dg}
	return nil
}

func GetSession() *Session {
	return globalSession
}

func (s *Session) GetDiscord() *discordgo.Session {
	return s.discord
}

// Connect opens the gateway connection and records the bot's own ID so the
// engine can exempt its own mitigation actions from scoring.
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if s.discord.State.User != nil {
		s.BotID = s.discord.State.User.ID
		logging.Info("Bot ID: %s", s.BotID)
	}

	logging.Info("Discord bot connected successfully")
	return nil
}

func (s *Session) Close() error {
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}
