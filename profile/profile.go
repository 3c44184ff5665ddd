// Package profile sanitizes client-supplied identity fields so a room is
// always usable even when a client sends no identity at all, and so no input
// can inject unbounded or malformed display data.
package profile

import (
	"math/rand"
	"strings"

	"github.com/gofrs/uuid/v5"
)

const (
	minClientIDLen = 6
	maxClientIDLen = 64
	minNameLen     = 2
	maxNameLen     = 60
	maxAvatarRunes = 4
)

var adjectives = []string{
	"Amber", "Bold", "Breezy", "Bright", "Calm", "Clever", "Cosmic", "Crimson",
	"Daring", "Dusty", "Gentle", "Golden", "Hazy", "Jolly", "Lucky", "Mellow",
	"Misty", "Nimble", "Quiet", "Rapid", "Scarlet", "Silver", "Sunny", "Swift",
	"Velvet", "Vivid", "Wandering", "Witty", "Zesty",
}

var nouns = []string{
	"Badger", "Comet", "Falcon", "Fox", "Heron", "Lynx", "Maple", "Meadow",
	"Nebula", "Otter", "Panda", "Pebble", "Pine", "Raven", "Reef", "River",
	"Sparrow", "Summit", "Tiger", "Walrus", "Willow", "Wren",
}

var avatars = []string{
	"🎨", "🖌️", "✏️", "🖍️", "🐙", "🦊", "🐼", "🦉", "🐸", "🦄",
	"🌵", "🌻", "🍉", "🚀", "🌈", "⭐", "🔥", "🧊", "🎲", "🎈",
}

// Input is the raw identity payload a client may send alongside create/join.
type Input struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// Profile is a fully sanitized identity with every field populated.
type Profile struct {
	ClientID    string
	DisplayName string
	Avatar      string
}

// Normalize sanitizes every field of the supplied input, substituting
// generated defaults where the input is missing or unusable.
func Normalize(in Input) Profile {
	return Profile{
		ClientID:    SanitizeClientID(in.ClientID),
		DisplayName: SanitizeDisplayName(in.DisplayName),
		Avatar:      SanitizeAvatar(in.Avatar),
	}
}

// SanitizeClientID keeps the supplied id when it is long enough to be a
// plausible persistent identity, capped at 64 characters. Anything shorter
// gets a fresh random identifier instead.
func SanitizeClientID(raw string) string {
	runes := []rune(strings.TrimSpace(raw))
	if len(runes) < minClientIDLen {
		return uuid.Must(uuid.NewV4()).String()
	}
	if len(runes) > maxClientIDLen {
		runes = runes[:maxClientIDLen]
	}
	return string(runes)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// SanitizeDisplayName trims the name, collapses embedded line breaks to
// spaces and caps the length. Names shorter than two characters are replaced
// with a generated "Adjective Noun" pair.
func SanitizeDisplayName(raw string) string {
	runes := []rune(strings.TrimSpace(lineBreaks.Replace(raw)))
	if len(runes) < minNameLen {
		return RandomDisplayName()
	}
	if len(runes) > maxNameLen {
		runes = runes[:maxNameLen]
	}
	return string(runes)
}

// SanitizeAvatar keeps up to four runes of the supplied value, enough to hold
// a multi-codepoint emoji, or picks a random one when empty.
func SanitizeAvatar(raw string) string {
	avatar := strings.TrimSpace(raw)
	if avatar == "" {
		return avatars[rand.Intn(len(avatars))]
	}
	runes := []rune(avatar)
	if len(runes) > maxAvatarRunes {
		runes = runes[:maxAvatarRunes]
	}
	return string(runes)
}

func RandomDisplayName() string {
	return adjectives[rand.Intn(len(adjectives))] + " " + nouns[rand.Intn(len(nouns))]
}
