// Package h264 parses and compares H264 profile-level-id values (RFC 6184)
// for codec matching and answer generation.
package h264

import (
	"errors"
	"fmt"
	"strconv"
)

// Profile is an H264 profile.
type Profile uint8

const (
	ProfileConstrainedBaseline Profile = iota + 1
	ProfileBaseline
	ProfileMain
	ProfileConstrainedHigh
	ProfileHigh
	ProfilePredictiveHigh444
)

// String returns the profile name.
func (p Profile) String() string {
	switch p {
	case ProfileConstrainedBaseline:
		return "ConstrainedBaseline"
	case ProfileBaseline:
		return "Baseline"
	case ProfileMain:
		return "Main"
	case ProfileConstrainedHigh:
		return "ConstrainedHigh"
	case ProfileHigh:
		return "High"
	case ProfilePredictiveHigh444:
		return "PredictiveHigh444"
	default:
		return fmt.Sprintf("Profile(%d)", uint8(p))
	}
}

// Level is an H264 level in units of level_idc. Level1b is a special value.
type Level uint8

const (
	Level1b Level = 0
	Level1  Level = 10
	Level11 Level = 11
	Level12 Level = 12
	Level13 Level = 13
	Level2  Level = 20
	Level21 Level = 21
	Level22 Level = 22
	Level3  Level = 30
	Level31 Level = 31
	Level32 Level = 32
	Level4  Level = 40
	Level41 Level = 41
	Level42 Level = 42
	Level5  Level = 50
	Level51 Level = 51
	Level52 Level = 52
)

// DefaultProfileLevelID is assumed when a codec carries no profile-level-id.
const DefaultProfileLevelID = "42e01f"

const constraintSet3Flag = 0x10

var (
	// ErrInvalidProfileLevelID is returned for unparseable profile-level-id strings.
	ErrInvalidProfileLevelID = errors.New("h264: invalid profile-level-id")
)

// ProfileLevelID is a parsed profile-level-id.
type ProfileLevelID struct {
	Profile Profile
	Level   Level
}

// profilePattern matches profile_idc and a profile_iop bit pattern where 'x'
// is a wildcard.
type profilePattern struct {
	idc     uint8
	mask    uint8
	value   uint8
	profile Profile
}

func newPattern(idc uint8, bits string, profile Profile) profilePattern {
	var mask, value uint8
	for i := 0; i < 8; i++ {
		bit := uint8(1) << (7 - i)
		switch bits[i] {
		case '1':
			mask |= bit
			value |= bit
		case '0':
			mask |= bit
		}
	}
	return profilePattern{idc: idc, mask: mask, value: value, profile: profile}
}

var profilePatterns = []profilePattern{
	newPattern(0x42, "x1xx0000", ProfileConstrainedBaseline),
	newPattern(0x4D, "1xxx0000", ProfileConstrainedBaseline),
	newPattern(0x58, "11xx0000", ProfileConstrainedBaseline),
	newPattern(0x42, "x0xx0000", ProfileBaseline),
	newPattern(0x58, "10xx0000", ProfileBaseline),
	newPattern(0x4D, "0x0x0000", ProfileMain),
	newPattern(0x64, "00000000", ProfileHigh),
	newPattern(0x64, "00001100", ProfileConstrainedHigh),
	newPattern(0xF4, "00000000", ProfilePredictiveHigh444),
}

// Parse parses a 6 hex digit profile-level-id string.
func Parse(s string) (ProfileLevelID, error) {
	if len(s) != 6 {
		return ProfileLevelID{}, fmt.Errorf("%w: %q", ErrInvalidProfileLevelID, s)
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil || n == 0 {
		return ProfileLevelID{}, fmt.Errorf("%w: %q", ErrInvalidProfileLevelID, s)
	}

	levelIdc := Level(n & 0xFF)
	profileIop := uint8((n >> 8) & 0xFF)
	profileIdc := uint8((n >> 16) & 0xFF)

	var level Level
	switch levelIdc {
	case Level11:
		if profileIop&constraintSet3Flag != 0 {
			level = Level1b
		} else {
			level = Level11
		}
	case Level1, Level12, Level13, Level2, Level21, Level22, Level3, Level31,
		Level32, Level4, Level41, Level42, Level5, Level51, Level52:
		level = levelIdc
	default:
		return ProfileLevelID{}, fmt.Errorf("%w: unknown level %d", ErrInvalidProfileLevelID, levelIdc)
	}

	for _, p := range profilePatterns {
		if p.idc == profileIdc && profileIop&p.mask == p.value {
			return ProfileLevelID{Profile: p.profile, Level: level}, nil
		}
	}
	return ProfileLevelID{}, fmt.Errorf("%w: unknown profile %#x/%#x", ErrInvalidProfileLevelID, profileIdc, profileIop)
}

// Encode formats the profile-level-id as 6 lowercase hex digits.
func (p ProfileLevelID) Encode() (string, error) {
	if p.Level == Level1b {
		switch p.Profile {
		case ProfileConstrainedBaseline:
			return "42f00b", nil
		case ProfileBaseline:
			return "42100b", nil
		case ProfileMain:
			return "4d100b", nil
		default:
			return "", fmt.Errorf("%w: level 1b not allowed for %s", ErrInvalidProfileLevelID, p.Profile)
		}
	}

	var idcIop string
	switch p.Profile {
	case ProfileConstrainedBaseline:
		idcIop = "42e0"
	case ProfileBaseline:
		idcIop = "4200"
	case ProfileMain:
		idcIop = "4d00"
	case ProfileConstrainedHigh:
		idcIop = "640c"
	case ProfileHigh:
		idcIop = "6400"
	case ProfilePredictiveHigh444:
		idcIop = "f400"
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidProfileLevelID, p.Profile)
	}
	return fmt.Sprintf("%s%02x", idcIop, uint8(p.Level)), nil
}

// parseOrDefault parses the profile-level-id parameter, using the default for
// an empty value.
func parseOrDefault(s string) (ProfileLevelID, error) {
	if s == "" {
		s = DefaultProfileLevelID
	}
	return Parse(s)
}

// IsSameProfile returns true if both values parse and share the same profile.
// Empty values stand for the default profile-level-id.
func IsSameProfile(a, b string) bool {
	pa, err := parseOrDefault(a)
	if err != nil {
		return false
	}
	pb, err := parseOrDefault(b)
	if err != nil {
		return false
	}
	return pa.Profile == pb.Profile
}

// isLessLevel compares levels, ordering 1b between 1 and 1.1.
func isLessLevel(a, b Level) bool {
	if a == Level1b {
		return b != Level1 && b != Level1b
	}
	if b == Level1b {
		return a == Level1
	}
	return a < b
}

func minLevel(a, b Level) Level {
	if isLessLevel(a, b) {
		return a
	}
	return b
}

// Params are the H264 fmtp values relevant to answer generation.
type Params struct {
	ProfileLevelID        string
	LevelAsymmetryAllowed bool
}

// GenerateProfileLevelIDForAnswer returns the profile-level-id to put in an
// answer for the given local and remote parameters. Returns "" if neither
// side specified one. Fails if the profiles differ.
func GenerateProfileLevelIDForAnswer(local, remote Params) (string, error) {
	if local.ProfileLevelID == "" && remote.ProfileLevelID == "" {
		return "", nil
	}

	localID, err := parseOrDefault(local.ProfileLevelID)
	if err != nil {
		return "", fmt.Errorf("h264: local: %w", err)
	}
	remoteID, err := parseOrDefault(remote.ProfileLevelID)
	if err != nil {
		return "", fmt.Errorf("h264: remote: %w", err)
	}
	if localID.Profile != remoteID.Profile {
		return "", fmt.Errorf("h264: profile mismatch (%s vs %s)", localID.Profile, remoteID.Profile)
	}

	asymmetry := local.LevelAsymmetryAllowed && remote.LevelAsymmetryAllowed

	level := minLevel(localID.Level, remoteID.Level)
	if asymmetry {
		level = localID.Level
	}
	return ProfileLevelID{Profile: localID.Profile, Level: level}.Encode()
}
