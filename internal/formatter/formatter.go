// Package formatter renders every user-facing text the bot sends.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"trendbet-bot/internal/models"
)

const (
	Welcome          = "Welcome you have been sucessfully registered use /help to check the list of commands"
	NotRegistered    = "You are not yet registered, send /start command to get started and register."
	NoWallet         = "You have not added a wallet yet, send /wallet to check how."
	GroupRefused     = "This command cannot be used in groups"
	InvalidAction    = "Invalid action at this point. If you want to go back use /cancelbet to cancel current bet process and restart"
	StaleMenu        = "This menu belongs to a bet process that is no longer active. Use /placebet to start again."
	BetInProgress    = "You already have a bet in progress. Finish it or use /cancelbet first."
	BetCancelled     = "Bet Process has been cancelled. use /placebet to restart"
	NoBetInProgress  = "You have no bet in progress."
	ChooseChain      = "Choose a chain to bet on"
	ChooseChartChain = "Choose a chain"
	ChooseDirection  = "Choose a direction"
	DataUnavailable  = "data is unavailable for this token"
	TryAgainLater    = "data is unavailable, please try again later"
	GenericFailure   = "Something went wrong, please try again later."

	ResolutionDeferred = "The current price could not be fetched, your bet will be settled shortly."

	NoBets           = "You have no bets yet use /placebet to place a bet"
	NoOpenBets       = "You have no open bets"
	EmptyLeaderboard = "No one is on the leaderboard yet. Place at least 5 bets to qualify."
	BetHowTo         = "Use /placebet to start a bet: choose a chain, then one of the coins available for betting, then whether its price will go up, down or stay the same."
	PromptDisabled   = "Prompting is not configured on this bot."
	PromptUsage      = "Add your request to the command, e.g. /prompt show me trending coins on solana"
	PromptUnknown    = "Sorry, I could not understand that request. Use /help to see what I can do."

	WalletSubmitted     = "wallet submitted successfully"
	WalletInvalid       = "invalid wallet address"
	WalletMissing       = "Add your wallet address to the command"
	WalletNotRegistered = "you are not yet registered, send /start command to get started"

	Goodbye     = "Goodbye! Add me again whenever you want to bet."
	QuitPrivate = "I can only leave group chats. Use /cancelbet to stop a bet in progress."
)

type command struct {
	name, description string
}

var commands = []command{
	{"/start", "Use this command to register and get started"},
	{"/wallet", "use this command to check details on how to submit your wallet"},
	{"/eth", "Fetch the top 10 trending tokens on the Ethereum chain"},
	{"/sol", "Fetch the top 10 trending tokens on the Solana chain"},
	{"/bnb", "Fetch the top 10 trending tokens on the BNB chain"},
	{"/bet", "Learn how betting works"},
	{"/placebet", "Use this to place a bet"},
	{"/cancelbet", "Cancel the bet you are currently placing"},
	{"/getalltokens", "Fetch the top 10 trending tokens on all supported chains"},
	{"/analysis", "Price and market cap charts for a trending token"},
	{"/mybets", "Get a list of all your bets"},
	{"/myopenbets", "Get a list of all your open bets"},
	{"/leaderboard", "See the players with the most wins"},
	{"/prompt", "Ask for any of the above in plain words"},
	{"/quit", "Make the bot leave this group"},
}

func Help() string {
	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		lines = append(lines, fmt.Sprintf("%s: %s", c.name, c.description))
	}
	return "Here are some available commands:\n\n" + strings.Join(lines, "\n\n")
}

func WalletInstructions(displayName string) string {
	return fmt.Sprintf("%s send a dm with the command \"/submitwallet -your wallet address-\" to submit your wallet", displayName)
}

// TrendingList numbers tokens by their true trending rank, so a betting list
// starts at 3.
func TrendingList(network string, tokens []models.TokenSnapshot, betting bool) string {
	kind := "top 10 trending"
	if betting {
		kind = "available for betting"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "These are the coins that are %s on the %s chain:", kind, network)
	for _, t := range tokens {
		fmt.Fprintf(&sb, "\n%d. %s ( %s )", t.Rank, t.Name, t.Symbol)
	}
	return sb.String()
}

func CoinMenu(chain models.Chain) string {
	return fmt.Sprintf("These are the coins available to bet on the %s chain", chain)
}

func ChartCoinMenu(chain models.Chain) string {
	return fmt.Sprintf("These are the coins available for charting on the %s chain", chain)
}

func BetPlaced(bet models.Bet) string {
	return fmt.Sprintf("you have placed a bet on %s and the direction is %s", bet.Name, bet.Direction)
}

func BetPending(bet models.Bet, hold time.Duration) string {
	return fmt.Sprintf("your bet on %s will be resolved in %s", bet.Name, hold)
}

// BetOutcome is only meaningful for closed bets.
func BetOutcome(displayName string, bet models.Bet) string {
	return fmt.Sprintf("%s your bet on %s was %s", displayName, bet.Name, bet.Verdict)
}

func BetLine(bet models.Bet) string {
	if bet.IsOpen() {
		return fmt.Sprintf("you have a bet on %s to go %s", bet.Name, bet.Direction)
	}
	return fmt.Sprintf("you placed a bet on %s to go %s and it was %s", bet.Name, bet.Direction, bet.Verdict)
}

func MyBets(bets []models.Bet) string {
	if len(bets) == 0 {
		return NoBets
	}
	lines := make([]string, 0, len(bets))
	for _, b := range bets {
		lines = append(lines, BetLine(b))
	}
	return strings.Join(lines, "\n")
}

func OpenBets(bets []models.Bet) string {
	lines := make([]string, 0, len(bets))
	for _, b := range bets {
		if b.IsOpen() {
			lines = append(lines, BetLine(b))
		}
	}
	if len(lines) == 0 {
		return NoOpenBets
	}
	return strings.Join(lines, "\n")
}

func Leaderboard(entries []models.LeaderboardEntry) string {
	if len(entries) == 0 {
		return EmptyLeaderboard
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s   %d wins", i+1, e.DisplayName, e.Wins))
	}
	return strings.Join(lines, "\n")
}

func PriceChartCaption(name string) string {
	return fmt.Sprintf("This is the price chart data for %s", name)
}

func MarketCapChartCaption(name string) string {
	return fmt.Sprintf("This is the market cap chart data for %s", name)
}
