package streettag

import "errors"

// Code classifies why an operation was refused. Every refusal the
// engine produces is a value of this type wrapped in *Error — nothing
// in the rules engine panics or aborts the process.
type Code string

const (
	// Validation — caller input is wrong; correct and retry.
	CodeInvalidSettings Code = "INVALID_SETTINGS"
	CodeInvalidInput    Code = "INVALID_INPUT"

	// Policy — expected, non-exceptional refusals.
	CodeGameFull         Code = "GAME_FULL"
	CodeGameNotJoinable  Code = "GAME_NOT_JOINABLE"
	CodeNotEnoughPlayers Code = "NOT_ENOUGH_PLAYERS"
	CodeNotIt            Code = "NOT_IT"
	CodeGameNotActive    Code = "GAME_NOT_ACTIVE"
	CodeTimeProtected    Code = "TIME_PROTECTED"
	CodeTaggerInSafeZone Code = "TAGGER_IN_SAFE_ZONE"
	CodeTargetInSafeZone Code = "TARGET_IN_SAFE_ZONE"
	CodeOutOfRange       Code = "OUT_OF_RANGE"
	CodeSpeedLimit       Code = "SPEED_LIMIT"

	// Consistency — optimistic and authoritative views diverged.
	CodeTargetGone Code = "TARGET_GONE"
	CodeNotInGame  Code = "NOT_IN_GAME"
	CodeGameEnded  Code = "GAME_ENDED"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

func E(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the refusal code from err, or "" for plain errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
