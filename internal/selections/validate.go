package selections

// KeeperConflict flags a (team, round) with more than one goal keeper
// selected. The check is advisory: it names the extra keepers so a human can
// fix the selections, but never blocks the write path.
type KeeperConflict struct {
	TeamName   string `json:"team_name,omitempty"`
	Round      string `json:"round,omitempty"`
	PlayerName string `json:"players_name"`
}

// DuplicateKeepers reports every goal keeper after the first within a single
// roster (one team and round). Only selected keepers count.
func DuplicateKeepers(rows []Row) []KeeperConflict {
	keeperSeen := make(map[string]bool)
	var conflicts []KeeperConflict
	for _, row := range rows {
		if !row.GoalKeeper || !row.Selected {
			continue
		}
		if keeperSeen[row.GameID] {
			conflicts = append(conflicts, KeeperConflict{PlayerName: row.PlayerName})
			continue
		}
		keeperSeen[row.GameID] = true
	}
	return conflicts
}

// SheetKeeperConflicts reports duplicate goal keepers across the weekly
// sheet, grouped by (team, round). The sheet keeps the first keeper; the
// rest are reported.
func SheetKeeperConflicts(sheet []SheetRow) []KeeperConflict {
	keeperSeen := make(map[[2]string]bool)
	var conflicts []KeeperConflict
	for _, row := range sheet {
		if !row.GoalKeeper {
			continue
		}
		group := [2]string{row.TeamName, row.Round}
		if keeperSeen[group] {
			conflicts = append(conflicts, KeeperConflict{
				TeamName:   row.TeamName,
				Round:      row.Round,
				PlayerName: row.PlayerName,
			})
			continue
		}
		keeperSeen[group] = true
	}
	return conflicts
}

// DoubleBooked lists players selected for more than one game on the weekly
// sheet. Highlighted, not blocked: accidental double-booking is a human
// decision to undo.
func DoubleBooked(sheet []SheetRow) []string {
	counts := make(map[string]int)
	for _, row := range sheet {
		counts[row.PlayerName]++
	}
	var players []string
	for _, row := range sheet {
		if counts[row.PlayerName] > 1 {
			players = append(players, row.PlayerName)
			counts[row.PlayerName] = 0 // report once
		}
	}
	return players
}
