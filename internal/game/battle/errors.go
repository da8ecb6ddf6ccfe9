package battle

import (
	"errors"
	"fmt"
)

var (
	// ErrContractBreach is returned when a participant hands the engine an
	// action that upstream validation should have rejected, such as a Fight
	// on a move with no PP.
	ErrContractBreach = errors.New("battle: contract breach")
	// ErrIllegalAction wraps every reason CheckAction rejects an action.
	ErrIllegalAction = errors.New("battle: illegal action")
)

// Diagnostic is a recovered configuration problem. The battle continues with
// a conservative fallback and the diagnostic is reported on the Result.
type Diagnostic struct {
	Code    string
	Message string
}

// String renders the diagnostic.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// Diagnostic codes.
const (
	DiagNoHealthySlot      = "no_healthy_slot"
	DiagUnknownKind        = "unknown_kind"
	DiagPlaceholder        = "placeholder_opponent"
	DiagUnknownWeather     = "unknown_weather"
	DiagUnknownMove        = "unknown_move"
	DiagUnknownItem        = "unknown_item"
	DiagIllegalAction      = "illegal_action"
	DiagInvalidReplacement = "invalid_replacement"
)

func illegal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalAction, fmt.Sprintf(format, args...))
}
