package router

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/akeren/clawsec-waitlist/pkg/ratelimit"
)

func normalizePath(controller *RESTController, relativePath string) string {
	return path.Join("/", controller.mountPoint, relativePath)
}

func routeKey(route, method string) string {
	return method + "-" + route
}

func (controller *RESTController) bindHandlerToController(routerService *RouterService, route, method string) {
	key := routeKey(route, method)
	if owner, taken := routerService.handlerToControllerMap[key]; taken {
		panic(fmt.Sprintf("route %s %s is already owned by controller %q", method, route, owner.name))
	}
	routerService.handlerToControllerMap[key] = controller
}

func (routerService *RouterService) bindOverrideRateLimiter(key string, limiter ratelimit.RateLimiter) {
	if limiter == nil {
		return
	}
	if _, taken := routerService.rateLimitOverrides[key]; taken {
		panic(fmt.Sprintf("rate limiter already bound for %q", key))
	}
	routerService.rateLimitOverrides[key] = limiter
}

func createHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			GetLogger(c).Error("Handler returned a nil result", "path", c.FullPath())
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("Internal server error").ToJSON())
			return
		}

		c.JSON(result.StatusCode, result.Body())
	}
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+mountPoint, "//", "/"),
		prepare:    prepare,
	}
}

// NewVersionedRESTController mounts the controller under /<version>/<mountPoint>.
func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: strings.ReplaceAll("/"+version+"/"+mountPoint, "//", "/"),
		version:    version,
		prepare:    prepare,
	}
}

// RateLimitWith applies limiter to every handler of the controller that has no handler-level override.
func (controller *RESTController) RateLimitWith(routerService *RouterService, limiter ratelimit.RateLimiter) *RESTController {
	routerService.bindOverrideRateLimiter(controller.mountPoint, limiter)
	return controller
}

// AddHandler registers handler for method at the controller's mount point joined with relativePath.
// A non-nil limiter takes precedence over controller and global limiters for this route.
func (routerService *RouterService) AddHandler(
	method string,
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	route := normalizePath(controller, relativePath)
	controller.handlerCount++
	controller.bindHandlerToController(routerService, route, method)
	routerService.bindOverrideRateLimiter(routeKey(route, method), limiter)

	routerService.engine.Handle(method, route, append(middlewares, createHandler(handler))...)
	routerService.logger.Debug("Handler registered", "method", method, "path", route)
}

func (routerService *RouterService) AddGetHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.AddHandler(http.MethodGet, controller, limiter, relativePath, handler, middlewares...)
}

func (routerService *RouterService) AddPostHandler(controller *RESTController, limiter ratelimit.RateLimiter, relativePath string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.AddHandler(http.MethodPost, controller, limiter, relativePath, handler, middlewares...)
}
