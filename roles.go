package main

// Alignment is a role's printed-on-the-card allegiance. Team membership that
// can change while the game runs (vampire conversion, cult recruitment) is
// tracked on the Game in separate sets, not here.
type Alignment int

const (
	AlignVillage Alignment = iota
	AlignWolf
	AlignNeutral
)

func (a Alignment) String() string {
	switch a {
	case AlignVillage:
		return "village"
	case AlignWolf:
		return "wolf"
	default:
		return "neutral"
	}
}

// Role is an immutable catalog entry. Every player holding a role shares the
// same *Role, so identity comparison is enough for behavior dispatch.
type Role struct {
	Name        string
	Alignment   Alignment
	NightAction bool
	Description string
}

var (
	Werewolf = &Role{"Werewolf", AlignWolf, true, "Votes with the pack to kill a villager each night."}
	WolfCub  = &Role{"Wolf Cub", AlignWolf, true, "A young wolf. The pack mourns its death."}
	LoneWolf = &Role{"Lone Wolf", AlignWolf, true, "Hunts with the pack but wins alone as the last one standing."}

	Seer      = &Role{"Seer", AlignVillage, true, "Learns each night whether one player is a werewolf."}
	AuraSeer  = &Role{"Aura Seer", AlignVillage, true, "Senses each night whether one player holds a night power."}
	Sorceress = &Role{"Sorceress", AlignNeutral, true, "Scries each night for the Seer, on behalf of the wolves."}
	Priest    = &Role{"Priest", AlignVillage, true, "Blesses one player each night, shielding them from death."}

	Bodyguard = &Role{"Bodyguard", AlignVillage, true, "Guards one player per night, never the same player twice in a row."}
	Doctor    = &Role{"Doctor", AlignVillage, true, "Saves one player from the night's attack."}
	Witch     = &Role{"Witch", AlignVillage, true, "Carries one heal potion and one poison potion for the whole game."}

	Vampire    = &Role{"Vampire", AlignNeutral, true, "Bites one player per night, converting the ordinary and killing the gifted."}
	CultLeader = &Role{"Cult Leader", AlignNeutral, true, "Recruits one player per night into the cult."}

	ApprenticeSeer = &Role{"Apprentice Seer", AlignVillage, false, "Studies under the Seer."}
	Cupid          = &Role{"Cupid", AlignVillage, false, "Links two players as lovers on the first night."}
	Cursed         = &Role{"Cursed", AlignVillage, false, "Becomes a werewolf if the pack attacks them."}
	Diseased       = &Role{"Diseased", AlignVillage, false, "Sickens the pack when eaten; the wolves skip their next kill."}
	Doppelganger   = &Role{"Doppelganger", AlignNeutral, false, "Takes on another player's fate."}
	Drunk          = &Role{"Drunk", AlignVillage, false, "Too far gone to remember their own role."}
	Ghost          = &Role{"Ghost", AlignNeutral, false, "Lingers after death."}
	Hoodlum        = &Role{"Hoodlum", AlignNeutral, false, "Out for themselves."}
	Hunter         = &Role{"Hunter", AlignVillage, false, "Takes one player down with them when they die."}
	Lycan          = &Role{"Lycan", AlignVillage, false, "Reads as a wolf but fights for the village."}
	Mason          = &Role{"Mason", AlignVillage, false, "Knows the other masons."}
	Mayor          = &Role{"Mayor", AlignVillage, false, "May reveal themselves to vote with double weight."}
	Minion         = &Role{"Minion", AlignWolf, false, "Serves the wolves without fangs of their own."}
	OldHag         = &Role{"Old Hag", AlignVillage, true, "Hexes one player each night, silencing them the next day."}
	Investigator   = &Role{"Paranormal Investigator", AlignVillage, true, "Checks two players at once for a wolf presence."}
	Pacifist       = &Role{"Pacifist", AlignVillage, false, "Refuses to lynch."}
	Prince         = &Role{"Prince", AlignVillage, false, "Survives the first attempt to lynch them."}
	Spellcaster    = &Role{"Spellcaster", AlignVillage, true, "Binds players at night so they cannot act the following night."}
	Tanner         = &Role{"Tanner", AlignNeutral, false, "Hates this job. Wins only by being lynched."}
	ToughGuy       = &Role{"Tough Guy", AlignVillage, false, "Shrugs off the first attempt on their life."}
	Troublemaker   = &Role{"Troublemaker", AlignNeutral, true, "Swaps two players' roles in the night."}
	VillageIdiot   = &Role{"Village Idiot", AlignVillage, false, "Votes enthusiastically. Nobody counts it."}
	Villager       = &Role{"Villager", AlignVillage, false, "No special powers, relies on deduction and discussion."}
)

// AllRoles lists the full catalog in a stable order for lobby display.
var AllRoles = []*Role{
	Villager, Werewolf, WolfCub, LoneWolf, Minion,
	Seer, ApprenticeSeer, AuraSeer, Sorceress, Priest,
	Doctor, Bodyguard, Witch, OldHag, Spellcaster,
	Vampire, CultLeader, Cupid, Cursed, Diseased,
	Doppelganger, Drunk, Ghost, Hoodlum, Hunter,
	Lycan, Mason, Mayor, Investigator, Pacifist,
	Prince, Tanner, ToughGuy, Troublemaker, VillageIdiot,
}

// RoleByName looks up a catalog entry by its display name.
func RoleByName(name string) *Role {
	for _, r := range AllRoles {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// isWolfTeamRole reports whether holding the role alone seats a player at the
// wolves' table. Minion has no kill vote but counts for the wolf team.
func isWolfTeamRole(r *Role) bool {
	switch r {
	case Werewolf, WolfCub, LoneWolf, Minion:
		return true
	}
	return false
}

// readsAsWolf reports how a role appears to scrying checks. The Lycan is the
// one card that scries wolf while fighting for the village.
func readsAsWolf(r *Role) bool {
	return r.Alignment == AlignWolf || r == Lycan
}

// isKillingWolf reports whether the role takes part in the nightly kill vote.
func isKillingWolf(r *Role) bool {
	switch r {
	case Werewolf, WolfCub, LoneWolf:
		return true
	}
	return false
}

// isVampireProof reports whether a vampire bite kills the target outright
// instead of converting them. The gifted village roles resist conversion.
func isVampireProof(r *Role) bool {
	switch r {
	case Priest, Seer, ApprenticeSeer, AuraSeer, Bodyguard, Witch, Doctor:
		return true
	}
	return false
}
