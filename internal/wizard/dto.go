package wizard

// StepState describes one step as seen by the actor
type StepState struct {
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Complete  bool   `json:"complete"`
	Reachable bool   `json:"reachable"`
}

// Progress is the wizard state returned after every request
type Progress struct {
	// Step to show next; empty once Done
	Step    string `json:"step,omitempty"`
	GroupID int64  `json:"group_id,omitempty"`
	// Redirected is set when the requested step was not reachable
	Redirected bool        `json:"redirected"`
	Done       bool        `json:"done"`
	Steps      []StepState `json:"steps,omitempty"`
}

func progress(seq *Sequencer, current string, redirected bool) *Progress {
	p := &Progress{
		Step:       current,
		GroupID:    seq.GroupID(),
		Redirected: redirected,
	}
	for _, st := range seq.Steps() {
		p.Steps = append(p.Steps, StepState{
			Slug:      st.Slug,
			Name:      st.Name,
			Position:  st.Position,
			Complete:  seq.IsStepComplete(st.Slug),
			Reachable: seq.IsReachable(st.Slug),
		})
	}
	return p
}
