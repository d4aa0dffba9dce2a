package showcase

import (
	"errors"

	"github.com/akeren/clawsec-waitlist/config/router"
	apperrors "github.com/akeren/clawsec-waitlist/pkg/errors"
	"github.com/akeren/clawsec-waitlist/pkg/particles"
	"github.com/akeren/clawsec-waitlist/pkg/sequence"
)

// NewShowcaseController serves the decorative data the landing page animates: the particle
// field and the terminal demo timelines.
func NewShowcaseController() *router.RESTController {
	return router.NewVersionedRESTController(
		"ShowcaseController",
		"v1",
		"/showcase",
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddGetHandler(c, nil, "/particles", particlesHandler())
			rs.AddGetHandler(c, nil, "/terminal/:variant", terminalHandler(sequence.DefaultTiming()))
		},
	)
}

func particlesHandler() router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var query ParticlesQuery
		if err := ctx.ShouldBindQuery(&query); err != nil {
			router.GetLogger(ctx).Warn("Invalid particles query", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &query)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid query parameters", validationErrors)
			}
			return router.BadRequestResult("count must be an integer", nil)
		}

		count := particles.DefaultCount
		if query.Count != nil {
			count = *query.Count
		}

		field, err := particles.Generate(count)
		if err != nil {
			return router.BadRequestResult(err.Error(), nil)
		}

		return router.OKResult(ParticlesResponse{Count: len(field), Particles: field}, "Particles generated")
	}
}

func terminalHandler(timing sequence.Timing) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		variant := ctx.Param("variant")

		lines, err := sequence.Lines(variant)
		if errors.Is(err, sequence.ErrUnknownVariant) {
			return router.NotFoundResult("Unknown terminal variant; expected \"with\" or \"without\"")
		}

		steps := sequence.Build(lines, timing)
		return router.OKResult(ToTerminalResponse(variant, lines, steps), "Terminal timeline built")
	}
}
