package domain

// ConfirmationPhrase must be typed verbatim before an account is deleted.
const ConfirmationPhrase = "DELETE MY ACCOUNT"

// CascadeStep is one stage of the account deletion sequence. Steps run in
// declaration order.
type CascadeStep int

const (
	StepNone CascadeStep = iota
	StepLostFound
	StepJobs
	StepNews
	StepIdentity
	StepSignOut
)

// CascadeSteps is the full ordered sequence.
var CascadeSteps = []CascadeStep{StepLostFound, StepJobs, StepNews, StepIdentity, StepSignOut}

var stepNames = map[CascadeStep]string{
	StepNone:      "none",
	StepLostFound: "lost_found",
	StepJobs:      "jobs",
	StepNews:      "news",
	StepIdentity:  "identity",
	StepSignOut:   "sign_out",
}

func (s CascadeStep) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Repeatable reports whether the step is a bulk delete that is safe to run
// again on a retry.
func (s CascadeStep) Repeatable() bool {
	return s == StepLostFound || s == StepJobs || s == StepNews
}

// ParseCascadeStep is the inverse of String, used when reading a persisted
// cursor.
func ParseCascadeStep(s string) (CascadeStep, bool) {
	for step, name := range stepNames {
		if name == s {
			return step, true
		}
	}
	return StepNone, false
}
