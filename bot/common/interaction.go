package common

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// InvokerID returns the Discord ID of whoever triggered the interaction,
// in a guild or a DM
func InvokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// SubcommandOptions returns the invoked subcommand name and its options keyed by name
func SubcommandOptions(i *discordgo.InteractionCreate) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return "", nil
	}
	sub := options[0]
	return sub.Name, OptionMap(sub.Options)
}

// OptionMap indexes command options by name
func OptionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	byName := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		byName[opt.Name] = opt
	}
	return byName
}

// GetDisplayName returns the server-specific display name for a user
// Falls back to username if nickname is not set or if there's an error
func GetDisplayName(s *discordgo.Session, guildID, userID string) string {
	if guildID != "" {
		member, err := s.GuildMember(guildID, userID)
		if err == nil && member != nil {
			if member.Nick != "" {
				return member.Nick
			}
			if member.User != nil {
				return member.User.Username
			}
		}
	}

	user, err := s.User(userID)
	if err == nil && user != nil {
		return user.Username
	}

	log.WithField("user_id", userID).Debug("Could not resolve display name")
	return "Unknown"
}

// GetUserMention returns a Discord mention string for a user
func GetUserMention(userID string) string {
	return "<@" + userID + ">"
}
