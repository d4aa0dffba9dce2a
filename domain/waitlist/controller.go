package waitlist

import (
	"errors"
	"net/http"
	"time"

	"github.com/akeren/clawsec-waitlist/config/router"
	apperrors "github.com/akeren/clawsec-waitlist/pkg/errors"
	"github.com/akeren/clawsec-waitlist/pkg/ratelimit"
	"github.com/goccy/go-json"
)

const signupRateLimitPrefix = "ratelimit:waitlist:signup:"

var errNullBody = errors.New("waitlist: signup body is null")

// NewWaitlistControllers serves the waitlist under /v1/waitlist and under the bare /waitlist path
// the landing page posts to. Both share one signup limiter.
func NewWaitlistControllers(service WaitlistService, signupRequestsPerMinute int) []*router.RESTController {
	var signupLimiter ratelimit.RateLimiter

	prepare := func(rs *router.RouterService, c *router.RESTController) {
		if signupLimiter == nil && signupRequestsPerMinute > 0 {
			signupLimiter = rs.RateLimiter(signupRequestsPerMinute, time.Minute, signupRateLimitPrefix)
		}

		rs.AddPostHandler(c, signupLimiter, "", signupHandler(service))
		rs.AddGetHandler(c, nil, "", countHandler(service))
	}

	return []*router.RESTController{
		router.NewVersionedRESTController("WaitlistController", "v1", "/waitlist", prepare),
		router.NewRESTController("WaitlistAliasController", "/waitlist", prepare),
	}
}

func signupHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		if !service.Configured() {
			return errorResult(ErrBackendNotConfigured)
		}

		email, err := decodeSignup(ctx)
		if err != nil {
			logger.Error("Failed to decode waitlist signup", "error", err)
			return router.JSONResult(http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage})
		}

		response, err := service.Signup(ctx.Request.Context(), email)
		if err != nil {
			return errorResult(err)
		}

		return router.JSONResult(http.StatusOK, response)
	}
}

func decodeSignup(ctx *router.RequestContext) (any, error) {
	raw, err := ctx.GetRawData()
	if err != nil {
		return nil, err
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	email, ok := emailMember(body)
	if !ok {
		return nil, errNullBody
	}
	return email, nil
}

func countHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		return router.JSONResult(http.StatusOK, service.Count(ctx.Request.Context()))
	}
}

func errorResult(err error) *router.ServiceResult {
	if KindOf(err) == KindUnknown {
		return router.JSONResult(http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage})
	}

	return router.JSONResult(apperrors.HTTPStatusCode(err), ErrorResponse{Error: apperrors.GetHumanReadableMessage(err)})
}
