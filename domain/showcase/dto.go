package showcase

import (
	"github.com/akeren/clawsec-waitlist/pkg/particles"
	"github.com/akeren/clawsec-waitlist/pkg/sequence"
)

type ParticlesQuery struct {
	Count *int `form:"count" binding:"omitempty,min=0,max=200"`
}

type ParticlesResponse struct {
	Count     int                  `json:"count"`
	Particles []particles.Particle `json:"particles"`
}

type StepResponse struct {
	AtMs    int64  `json:"at_ms"`
	Line    int    `json:"line"`
	Visible string `json:"visible"`
	Done    bool   `json:"done"`
}

type TerminalResponse struct {
	Variant    string          `json:"variant"`
	Lines      []sequence.Line `json:"lines"`
	Steps      []StepResponse  `json:"steps"`
	DurationMs int64           `json:"duration_ms"`
}

func ToTerminalResponse(variant string, lines []sequence.Line, steps []sequence.Step) TerminalResponse {
	out := make([]StepResponse, len(steps))
	for i, step := range steps {
		out[i] = StepResponse{
			AtMs:    step.At.Milliseconds(),
			Line:    step.Line,
			Visible: step.Visible,
			Done:    step.Done,
		}
	}

	return TerminalResponse{
		Variant:    variant,
		Lines:      lines,
		Steps:      out,
		DurationMs: sequence.Duration(steps).Milliseconds(),
	}
}
