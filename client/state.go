package client

import "fmt"

// GameState is one decoded snapshot. Keys are watcher names plus the
// frame counter; unknown keys read as zero through the accessors.
type GameState map[string]uint64

// Frame returns the host frame counter at the time of the snapshot.
func (s GameState) Frame() uint64 {
	return s["frame"]
}

// InBattle reports whether a battle is in progress.
func (s GameState) InBattle() bool {
	return s["in_battle_flag"] != 0
}

// PlayerHP returns the lead party member's current hit points.
func (s GameState) PlayerHP() uint64 {
	return s["player_hp"]
}

// PlayerMaxHP returns the lead party member's maximum hit points.
func (s GameState) PlayerMaxHP() uint64 {
	return s["player_max_hp"]
}

// PP returns the remaining power points for a move slot (0-3).
func (s GameState) PP(slot int) uint64 {
	return s[fmt.Sprintf("battle_pp_%d", slot+1)]
}

// Encounter describes the opposing wild party member, when one is
// present.
type Encounter struct {
	Species     uint64
	TrainerID   uint64
	SecretID    uint64
	Personality uint64
}

// Encounter returns the current wild encounter, or nil outside of
// battle or before the opponent's data is populated.
func (s GameState) Encounter() *Encounter {
	if !s.InBattle() {
		return nil
	}
	species := s["enemy_species"]
	if species == 0 {
		return nil
	}
	return &Encounter{
		Species:     species,
		TrainerID:   s["enemy_tid"],
		SecretID:    s["enemy_sid"],
		Personality: s["enemy_personality"],
	}
}
