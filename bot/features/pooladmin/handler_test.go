package pooladmin

import (
	"errors"
	"testing"
	"time"

	"prizepool/bot/common"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringOption(name, value string) optionMap {
	return optionMap{
		name: {Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value},
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options optionMap
		want    string
		wantErr bool
	}{
		{"plain", stringOption("amount", "500"), "500", false},
		{"separators", stringOption("amount", " 1,500,000 "), "1500000", false},
		{"beyond int64", stringOption("amount", "184467440737095516160"), "184467440737095516160", false},
		{"zero", stringOption("amount", "0"), "", true},
		{"negative", stringOption("amount", "-5"), "", true},
		{"decimal", stringOption("amount", "1.5"), "", true},
		{"missing", optionMap{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := parsePrice(tt.options)
			if tt.wantErr {
				var botErr *common.BotError
				require.True(t, errors.As(err, &botErr))
				assert.NotEmpty(t, botErr.UserMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, price.String())
		})
	}
}

func TestParseWindow(t *testing.T) {
	t.Parallel()

	window, err := parseWindow(stringOption("duration", "36h"))
	require.NoError(t, err)
	assert.Equal(t, 36*time.Hour, window)

	window, err = parseWindow(stringOption("duration", "1h30m"))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, window)

	_, err = parseWindow(stringOption("duration", "two days"))
	assert.Error(t, err)

	_, err = parseWindow(optionMap{})
	assert.Error(t, err)
}

func TestAssetOption(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "GEM", assetOption(stringOption("asset", " gem ")))
	assert.Equal(t, "", assetOption(optionMap{}))
}
