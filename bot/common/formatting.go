package common

import (
	"fmt"
	"strings"
	"time"

	"prizepool/domain/entities"

	sdkmath "cosmossdk.io/math"
)

// FormatAmount formats an asset amount with thousand separators
func FormatAmount(amount sdkmath.Int) string {
	if amount.IsNil() {
		return "0"
	}

	str := amount.Abs().String()
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}

	n := len(str)
	if n <= 3 {
		return sign + str
	}

	var result strings.Builder
	result.WriteString(sign)
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatTickets formats a ticket count with thousand separators
func FormatTickets(count uint64) string {
	return FormatAmount(sdkmath.NewIntFromUint64(count))
}

// FormatTicketRange renders an inclusive ticket range as "#start-#final"
func FormatTicketRange(r *entities.TicketRange) string {
	if r.StartID == r.FinalID {
		return fmt.Sprintf("#%d", r.StartID)
	}
	return fmt.Sprintf("#%d-#%d", r.StartID, r.FinalID)
}

// FormatTicketSet lists up to limit ranges, summarising the rest
func FormatTicketSet(set entities.TicketSet, limit int) string {
	if len(set) == 0 {
		return "none"
	}

	shown := set
	if limit > 0 && len(set) > limit {
		shown = set[:limit]
	}

	parts := make([]string, 0, len(shown)+1)
	for _, r := range shown {
		parts = append(parts, FormatTicketRange(r))
	}
	if hidden := len(set) - len(shown); hidden > 0 {
		parts = append(parts, fmt.Sprintf("and %d more", hidden))
	}
	return strings.Join(parts, ", ")
}

// FormatPayout describes a claim payout, one line per asset
func FormatPayout(payout *entities.Payout, assetSymbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Refund: **%s %s**", FormatAmount(payout.Refund), assetSymbol)
	if payout.IsWinner {
		fmt.Fprintf(&b, "\nPrize: **%s %s**", FormatAmount(payout.Prize), assetSymbol)
		for _, sweep := range payout.BonusSweeps {
			fmt.Fprintf(&b, "\nBonus: **%s %s**", FormatAmount(sweep.Amount), sweep.AssetID)
		}
	}
	fmt.Fprintf(&b, "\nTotal: **%s %s**", FormatAmount(payout.Total()), assetSymbol)
	return b.String()
}

// FormatDuration renders a window length the way admins type it ("36h", "2h30m")
func FormatDuration(d time.Duration) string {
	s := d.Round(time.Second).String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
