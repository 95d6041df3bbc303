// Package content holds the static adventure catalog: the five worlds, the
// mission tiers for big and tiny builders, and the spoken lines the app
// warms into the audio cache at launch.
package content

// WorldID identifies one of the five build worlds.
type WorldID string

const (
	WorldVehicle WorldID = "VEHICLE"
	WorldDino    WorldID = "DINO"
	WorldCastle  WorldID = "CASTLE"
	WorldLava    WorldID = "LAVA"
	WorldSpace   WorldID = "SPACE"
)

// Level selects the mission tier. Adventure is the big-builder tier, Tiny the
// gentler one with slower narration.
type Level string

const (
	LevelAdventure Level = "ADVENTURE"
	LevelTiny      Level = "TINY"
)

// TinyRate is the playback rate used for the tiny-builder tier.
const TinyRate = 0.9

// RateFor returns the narration rate for a tier.
func RateFor(level Level) float64 {
	if level == LevelTiny {
		return TinyRate
	}
	return 1.0
}

type World struct {
	ID         WorldID
	Name       string
	VoiceIntro string
	AudioKey   string
	// UnlockCount is the sticker total required before big builders may
	// enter. Tiny builders ignore locks.
	UnlockCount int
}

type Mission struct {
	ID          string
	Title       string
	VoicePrompt string
	// AudioScript, when set, is spoken instead of VoicePrompt.
	AudioScript string
	AudioKey    string
	World       WorldID
	Level       Level
}

// SpokenText is the line actually voiced for a mission.
func (m Mission) SpokenText() string {
	if m.AudioScript != "" {
		return m.AudioScript
	}
	return m.VoicePrompt
}

var worlds = []World{
	{ID: WorldVehicle, Name: "Vehicle Valley", AudioKey: "world_vehicle", UnlockCount: 0,
		VoiceIntro: "Vroom vroom! Welcome to Vehicle Valley. What will you drive today?"},
	{ID: WorldDino, Name: "Dino Jungle", AudioKey: "world_dino", UnlockCount: 2,
		VoiceIntro: "Roar! Welcome to Dino Jungle. The dinosaurs need a builder!"},
	{ID: WorldCastle, Name: "Castle Kingdom", AudioKey: "world_castle", UnlockCount: 4,
		VoiceIntro: "Welcome to Castle Kingdom! The king needs your help, brave builder."},
	{ID: WorldLava, Name: "Lava Mountain", AudioKey: "world_lava", UnlockCount: 6,
		VoiceIntro: "Whoa, it's hot! Welcome to Lava Mountain. Watch your step!"},
	{ID: WorldSpace, Name: "Outer Space", AudioKey: "world_space", UnlockCount: 8,
		VoiceIntro: "Three, two, one, blast off! Welcome to Outer Space!"},
}

var bigMissions = []Mission{
	{ID: "veh-racer", Title: "Race Car", World: WorldVehicle, Level: LevelAdventure, AudioKey: "m_veh_racer",
		VoicePrompt: "Build a super speedy race car!",
		AudioScript: "Build a super speedy race car! Make it zoom, zoom, zoom!"},
	{ID: "veh-digger", Title: "Digger", World: WorldVehicle, Level: LevelAdventure, AudioKey: "m_veh_digger",
		VoicePrompt: "Build a big digger with a scoop."},
	{ID: "dino-rex", Title: "T-Rex", World: WorldDino, Level: LevelAdventure, AudioKey: "m_dino_rex",
		VoicePrompt: "Build a mighty T-Rex with big teeth!",
		AudioScript: "Build a mighty T-Rex! Give it big, chompy teeth!"},
	{ID: "dino-nest", Title: "Dino Nest", World: WorldDino, Level: LevelAdventure, AudioKey: "m_dino_nest",
		VoicePrompt: "Build a cozy nest for the dino eggs."},
	{ID: "cas-tower", Title: "Tall Tower", World: WorldCastle, Level: LevelAdventure, AudioKey: "m_cas_tower",
		VoicePrompt: "Build the tallest tower in the kingdom!"},
	{ID: "cas-bridge", Title: "Drawbridge", World: WorldCastle, Level: LevelAdventure, AudioKey: "m_cas_bridge",
		VoicePrompt: "Build a drawbridge over the moat."},
	{ID: "lava-boat", Title: "Lava Boat", World: WorldLava, Level: LevelAdventure, AudioKey: "m_lava_boat",
		VoicePrompt: "Build a boat that can sail on lava!"},
	{ID: "lava-shield", Title: "Heat Shield", World: WorldLava, Level: LevelAdventure, AudioKey: "m_lava_shield",
		VoicePrompt: "Build a shield to block the heat."},
	{ID: "spc-rocket", Title: "Rocket", World: WorldSpace, Level: LevelAdventure, AudioKey: "m_spc_rocket",
		VoicePrompt: "Build a rocket that flies to the moon!",
		AudioScript: "Build a rocket that flies all the way to the moon! Three, two, one!"},
	{ID: "spc-rover", Title: "Moon Rover", World: WorldSpace, Level: LevelAdventure, AudioKey: "m_spc_rover",
		VoicePrompt: "Build a rover with big bumpy wheels."},
}

var tinyMissions = []Mission{
	{ID: "tiny-car", Title: "Little Car", World: WorldVehicle, Level: LevelTiny, AudioKey: "t_veh_car",
		VoicePrompt: "Build a little car. Beep beep!"},
	{ID: "tiny-truck", Title: "Big Truck", World: WorldVehicle, Level: LevelTiny, AudioKey: "t_veh_truck",
		VoicePrompt: "Build a big truck. Vroom!"},
	{ID: "tiny-dino", Title: "Baby Dino", World: WorldDino, Level: LevelTiny, AudioKey: "t_dino_baby",
		VoicePrompt: "Build a baby dino. Rawr!"},
	{ID: "tiny-egg", Title: "Dino Egg", World: WorldDino, Level: LevelTiny, AudioKey: "t_dino_egg",
		VoicePrompt: "Build a round dino egg."},
	{ID: "tiny-door", Title: "Castle Door", World: WorldCastle, Level: LevelTiny, AudioKey: "t_cas_door",
		VoicePrompt: "Build a big castle door. Knock knock!"},
	{ID: "tiny-flag", Title: "Flag", World: WorldCastle, Level: LevelTiny, AudioKey: "t_cas_flag",
		VoicePrompt: "Build a flag for the castle."},
	{ID: "tiny-rock", Title: "Hot Rock", World: WorldLava, Level: LevelTiny, AudioKey: "t_lava_rock",
		VoicePrompt: "Build a hot red rock. Ouch, hot!"},
	{ID: "tiny-volcano", Title: "Volcano", World: WorldLava, Level: LevelTiny, AudioKey: "t_lava_volcano",
		VoicePrompt: "Build a volcano. Boom!"},
	{ID: "tiny-star", Title: "Star", World: WorldSpace, Level: LevelTiny, AudioKey: "t_spc_star",
		VoicePrompt: "Build a twinkly star."},
	{ID: "tiny-moon", Title: "Moon", World: WorldSpace, Level: LevelTiny, AudioKey: "t_spc_moon",
		VoicePrompt: "Build a big round moon."},
}

// Worlds returns the catalog worlds in display order.
func Worlds() []World {
	out := make([]World, len(worlds))
	copy(out, worlds)
	return out
}

// FindWorld looks a world up by ID.
func FindWorld(id WorldID) (World, bool) {
	for _, w := range worlds {
		if w.ID == id {
			return w, true
		}
	}
	return World{}, false
}

// Missions returns the tier's missions in display order.
func Missions(level Level) []Mission {
	src := bigMissions
	if level == LevelTiny {
		src = tinyMissions
	}
	out := make([]Mission, len(src))
	copy(out, src)
	return out
}

// WorldMissions returns the tier's missions for a single world.
func WorldMissions(level Level, id WorldID) []Mission {
	var out []Mission
	for _, m := range Missions(level) {
		if m.World == id {
			out = append(out, m)
		}
	}
	return out
}

// WorldIntro is the line spoken when a world opens. Tiny builders always get
// the short greeting.
func WorldIntro(w World, level Level) string {
	if level == LevelTiny {
		return "Welcome to " + w.Name + "! Let's play!"
	}
	return w.VoiceIntro
}

// WarmupTexts is the launch preload list: the core navigation lines, every
// world greeting, and the first few missions of each tier. Punctuated for
// prosody.
func WarmupTexts() []string {
	texts := []string{
		"Welcome back! Let's play, Lego Adventure!",
		"Sticker Book! Look at your collection.",
		"Are you a Big Builder? Or a Tiny Builder?",
		"Tiny Builders! Let's play!",
		"Lego Adventure! Let's build!",
		"Locked! You need more stickers, for this world.",
		"All gone. Stickers cleared.",
		"Good job! Tap the gift box.",
		"Awesome job! Tap the gift box... What's inside?",
	}
	for _, w := range worlds {
		texts = append(texts, w.VoiceIntro, "Welcome to "+w.Name+"! Let's play!")
	}
	for _, m := range bigMissions[:min(5, len(bigMissions))] {
		texts = append(texts, m.SpokenText())
	}
	for _, m := range tinyMissions[:min(5, len(tinyMissions))] {
		texts = append(texts, m.SpokenText())
	}
	return texts
}
