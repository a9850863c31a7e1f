package common

import (
	"errors"
	"fmt"

	"prizepool/domain"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const genericFailureMessage = "Something went wrong. Please try again later."

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string      // Message shown to Discord user
	LogMessage  string      // Internal message for logging
	Ephemeral   bool        // Whether the error message should be ephemeral
	Err         error       // Underlying error
	Context     interface{} // Additional context for logging
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (validation, closed window, etc)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
	}
}

// NewSystemError creates an error for system issues (database, custody, etc)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: genericFailureMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
		Err:         err,
	}
}

var userMessages = []struct {
	err     error
	message string
}{
	{domain.ErrInvalidAmount, "Amounts must be positive whole numbers."},
	{domain.ErrEpochNotActive, "That epoch is no longer active."},
	{domain.ErrWindowClosed, "Ticket sales for this epoch have closed."},
	{domain.ErrEpochNotConcluded, "That epoch has not been drawn yet."},
	{domain.ErrWithdrawalLocked, "Withdrawals for that epoch are not open yet."},
	{domain.ErrAlreadyClaimed, "You have already claimed from that epoch."},
	{domain.ErrNoParticipants, "Nobody has bought a ticket in this epoch yet."},
	{domain.ErrTransferFailed, "The transfer could not be completed. Check your balance and try again."},
	{domain.ErrRandomnessUnavailable, "The draw could not get a random value. Try again shortly."},
	{domain.ErrAuthorityDenied, "Only the pool authority can do that."},
	{domain.ErrEpochNotFound, "No such epoch."},
	{domain.ErrEpochAlreadyActive, "An epoch is already running."},
	{domain.ErrWithdrawalAlreadyOpen, "Withdrawals for that epoch are already open."},
	{domain.ErrNoTickets, "You hold no tickets in that epoch."},
	{domain.ErrTooManyRanges, "You have made too many separate purchases this epoch. Buy a larger batch next time."},
	{domain.ErrPaused, "The pool is paused."},
	{domain.ErrInvalidSettings, "That setting value is not allowed."},
	{domain.ErrStakingFailed, "The staking position could not be moved. Try again shortly."},
	{domain.ErrInvalidParticipant, "That participant is not valid."},
}

// FromDomainError wraps a pool error as a BotError, choosing the user message
// from the domain error kind. Unknown errors become system errors.
func FromDomainError(err error, logMessage string) *BotError {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return &BotError{
				UserMessage: m.message,
				LogMessage:  logMessage,
				Ephemeral:   true,
				Err:         err,
			}
		}
	}
	return NewSystemError(err, logMessage)
}

// RespondWithError sends an error message as an interaction response
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// FollowUpWithError sends an error message as a follow-up to a deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("❌ %s", message),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error sending follow-up error message: %v", err)
	}
}

// HandleError logs err and tells the user what went wrong
func HandleError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, deferred bool) {
	botErr := FromDomainError(err, "Unexpected error in bot command")

	fields := log.Fields{
		"user_id":      InvokerID(i),
		"command":      i.ApplicationCommandData().Name,
		"error":        botErr.Error(),
		"user_message": botErr.UserMessage,
	}
	if botErr.Context != nil {
		fields["context"] = botErr.Context
	}
	if botErr.UserMessage == genericFailureMessage {
		log.WithFields(fields).Error(botErr.LogMessage)
	} else {
		log.WithFields(fields).Warn(botErr.LogMessage)
	}

	if deferred {
		FollowUpWithError(s, i, botErr.UserMessage)
	} else {
		RespondWithError(s, i, botErr.UserMessage)
	}
}
