package gate

import (
	"fmt"
	"strings"

	"safebrowse/internal/models"
)

// Phase is the position of a gate in its navigation state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseEvaluating Phase = "evaluating"
	PhaseBlocked    Phase = "blocked"
	PhaseAllowed    Phase = "allowed"
)

// BlockNotice is the fixed explanation shown for a blocked navigation.
type BlockNotice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// NewBlockNotice builds the restricted-content explanation from a reason.
func NewBlockNotice(reason string) *BlockNotice {
	return &BlockNotice{
		Title:   "Content Restricted",
		Message: fmt.Sprintf("The content you are trying to access has been filtered for your safety. %s", reason),
	}
}

// State is the tagged value published on every transition. Activity,
// Assessment and Notice are only set in terminal phases.
type State struct {
	Seq        uint64                 `json:"seq"`
	Phase      Phase                  `json:"phase"`
	Input      string                 `json:"input,omitempty"`
	Kind       models.ActivityKind    `json:"kind,omitempty"`
	URL        string                 `json:"url,omitempty"`
	Activity   *models.Activity       `json:"activity,omitempty"`
	Assessment *models.RiskAssessment `json:"assessment,omitempty"`
	Notice     *BlockNotice           `json:"notice,omitempty"`
}

// DisplayURL returns the address-bar form of a visit target.
func DisplayURL(input string) string {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return input
	}
	return "https://" + input
}
