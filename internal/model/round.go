package model

// RoundType enumerates the five session kinds.
type RoundType string

const (
	RoundOA         RoundType = "oa"
	RoundTech1      RoundType = "tech1"
	RoundTech2      RoundType = "tech2"
	RoundBehavioral RoundType = "behavioral"
	RoundHR         RoundType = "hr"
)

// Valid reports whether rt is one of the known round types.
func (rt RoundType) Valid() bool {
	switch rt {
	case RoundOA, RoundTech1, RoundTech2, RoundBehavioral, RoundHR:
		return true
	}
	return false
}

// Objective reports whether the round is scored locally against answer keys
// (the OA screening round) rather than by the remote evaluator.
func (rt RoundType) Objective() bool {
	return rt == RoundOA
}

// DisplayName returns the human-readable round name stored alongside results.
func (rt RoundType) DisplayName() string {
	switch rt {
	case RoundOA:
		return "Online Assessment"
	case RoundTech1:
		return "Technical Round 1"
	case RoundTech2:
		return "Technical Round 2"
	case RoundBehavioral:
		return "Behavioral Round"
	case RoundHR:
		return "HR Round"
	}
	return string(rt)
}
