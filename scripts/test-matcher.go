package main

import (
	"log"
	"time"

	"github.com/fortuna/borealis/internal/reconciliation"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/team"
)

// Test utility for the event matcher. Runs against the static team
// directory, no database needed: go run scripts/test-matcher.go
func main() {
	log.Println("Testing Event Matcher")
	log.Println("==============================")

	matcher := reconciliation.NewMatcher(team.Default())
	slate := createTestSlate()

	log.Println("\n--- Testing Event Matching ---")

	events := []*store.OddsEvent{
		{Provider: "theodds", EventID: "ev-1", HomeTeam: "Dallas Stars", AwayTeam: "Colorado Avalanche"},
		{Provider: "theodds", EventID: "ev-2", HomeTeam: "St Louis Blues", AwayTeam: "Winnipeg Jets"},       // missing period
		{Provider: "propodds", EventID: "ev-3", HomeTeam: "Montréal Canadiens", AwayTeam: "Boston Bruins"}, // accented
		{Provider: "theodds", EventID: "ev-4", HomeTeam: "Dallas Stars", AwayTeam: "Edmonton Oilers"},      // not on slate
	}

	for i, event := range events {
		log.Printf("\nTest %d: %s @ %s", i+1, event.AwayTeam, event.HomeTeam)
		game, confidence, ok := matcher.MatchEvent(event, slate)
		if ok {
			log.Printf("  ✓ Matched game %d (%s @ %s) confidence %.0f",
				game.GameID, game.AwayTeam, game.HomeTeam, confidence)
		} else {
			log.Printf("  ✗ No match")
		}
	}

	log.Println("\n--- Testing Player Matching ---")

	roster := []string{"Nathan MacKinnon", "Cale Makar", "Mikko Rantanen", "Wyatt Johnston"}
	names := []string{
		"Nathan MacKinnon", // exact
		"nathan mackinnon", // case only
		"Mikko Rantenen",   // one letter off
		"Connor McDavid",   // not on roster
	}

	for i, name := range names {
		log.Printf("\nTest %d: %q", i+1, name)
		canonical, score, ok := matcher.MatchPlayer(name, roster)
		if ok {
			log.Printf("  ✓ Matched %q score %d", canonical, score)
		} else {
			log.Printf("  ✗ No match (best score %d)", score)
		}
	}

	log.Println("\n==============================")
	log.Println("✓ All Matcher Tests Complete")
}

func createTestSlate() []*store.Game {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return []*store.Game{
		{GameID: 2024020701, SeasonID: 20242025, GameDate: date, HomeTeam: "DAL", AwayTeam: "COL"},
		{GameID: 2024020702, SeasonID: 20242025, GameDate: date, HomeTeam: "STL", AwayTeam: "WPG"},
		{GameID: 2024020703, SeasonID: 20242025, GameDate: date, HomeTeam: "MTL", AwayTeam: "BOS"},
	}
}
