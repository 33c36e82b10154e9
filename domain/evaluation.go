package domain

// Evaluation is the structured output of scoring one candidate against one
// job. It is not persisted as its own row; the orchestrator serializes it
// into the Application's ai_insights column. MatchScore is always set and
// within [0,100]; a failed evaluation yields the fallback value (score 0,
// empty lists, a concern flagging the failure) rather than an error.
type Evaluation struct {
	MatchScore int      `json:"matchScore"`
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
	Highlights []string `json:"highlights"`
	Insights   string   `json:"insights"`
	Strengths  []string `json:"strengths"`
	Concerns   []string `json:"concerns"`
}
