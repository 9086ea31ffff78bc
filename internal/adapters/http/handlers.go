package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/samirrijal/multimap/internal/assets"
	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/usecases"
	"github.com/samirrijal/multimap/internal/pkg/logging"
)

// SkippedHeader lists the instance ids left out of a rendered page.
const SkippedHeader = "X-Multimap-Skipped"

// DescriptorRequest is the body of POST /v1/descriptors and /v1/widgets/preview.
// Pins is left untyped so that malformed settings reach the builder as-is.
type DescriptorRequest struct {
	InstanceID string `json:"instance_id" validate:"required,max=64,printascii"`
	Pins       any    `json:"pins"`
}

// WidgetRenderRequest is the body of POST /v1/widgets/render.
type WidgetRenderRequest struct {
	InstanceID string                `json:"instance_id" validate:"required,max=64,printascii"`
	Settings   domain.WidgetSettings `json:"settings"`
}

// PageRenderRequest is the body of POST /v1/pages/render.
type PageRenderRequest struct {
	Widgets []WidgetRenderRequest `json:"widgets" validate:"required,min=1,max=50,dive"`
}

// SkippedWidget describes one widget missing from a rendered page.
type SkippedWidget struct {
	InstanceID string `json:"instance_id"`
	Reason     string `json:"reason"`
}

// BuildDescriptorHandler builds the client descriptor for one widget.
func BuildDescriptorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req DescriptorRequest
		if apiErr := bindBody(c, &req); apiErr != nil {
			return writeError(c, apiErr)
		}

		data, err := deps.Descriptors.BuildJSON(c.UserContext(), req.Pins, domain.InstanceID(req.InstanceID))
		if err != nil {
			logging.FromContext(c.UserContext()).Warn("descriptor build failed", "instance_id", req.InstanceID, "error", err)
			return domainError(c, err, "descriptor could not be built")
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Send(data)
	}
}

// RenderWidgetHandler renders a standalone widget, shared head included.
// A widget that cannot be built renders as an empty body.
func RenderWidgetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req WidgetRenderRequest
		if apiErr := bindBody(c, &req); apiErr != nil {
			return writeError(c, apiErr)
		}

		html, err := deps.Widgets.RenderWidget(c.UserContext(), domain.InstanceID(req.InstanceID), req.Settings, usecases.NewScriptRegistry())
		if err != nil {
			logging.FromContext(c.UserContext()).Warn("widget render failed", "instance_id", req.InstanceID, "error", err)
			c.Set(SkippedHeader, req.InstanceID)
			html = ""
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(html)
	}
}

// RenderPageHandler renders several widgets as one page fragment.
func RenderPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req PageRenderRequest
		if apiErr := bindBody(c, &req); apiErr != nil {
			return writeError(c, apiErr)
		}

		widgets := lo.Map(req.Widgets, func(w WidgetRenderRequest, _ int) usecases.WidgetRequest {
			return usecases.WidgetRequest{InstanceID: domain.InstanceID(w.InstanceID), Settings: w.Settings}
		})
		html, skipped := deps.Widgets.RenderPage(c.UserContext(), widgets)
		if len(skipped) > 0 {
			ids := lo.Uniq(lo.Map(skipped, func(e usecases.WidgetError, _ int) string {
				return string(e.InstanceID)
			}))
			c.Set(SkippedHeader, strings.Join(ids, ","))
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(html)
	}
}

// PreviewWidgetHandler builds a descriptor and returns its GeoJSON preview.
func PreviewWidgetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Previews == nil {
			return errUnavailable(c, "previews are not enabled")
		}

		var req DescriptorRequest
		if apiErr := bindBody(c, &req); apiErr != nil {
			return writeError(c, apiErr)
		}

		ctx := c.UserContext()
		desc, err := deps.Descriptors.Build(ctx, req.Pins, domain.InstanceID(req.InstanceID))
		if err != nil {
			return domainError(c, err, "descriptor could not be built")
		}
		data, err := deps.Previews.Render(ctx, desc)
		if err != nil {
			logging.FromContext(ctx).Error("preview render failed", "instance_id", req.InstanceID, "error", err)
			return domainError(c, err, "preview could not be rendered")
		}

		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// GetPreviewHandler returns the latest stored preview of an instance.
func GetPreviewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Previews == nil {
			return errUnavailable(c, "previews are not enabled")
		}

		id := c.Params("id")
		data, err := deps.Previews.Get(c.UserContext(), domain.InstanceID(id))
		if err != nil {
			return domainError(c, err, "no preview for instance "+id)
		}

		c.Set(fiber.HeaderContentType, "application/geo+json")
		c.Set(fiber.HeaderCacheControl, "public, max-age=30")
		return c.Send(data)
	}
}

// BootstrapAssetHandler serves the embedded browser bootstrap script.
func BootstrapAssetHandler() fiber.Handler {
	etag := assets.BootstrapETag()
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderETag, etag)
		c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
		if etagMatches(c.Get(fiber.HeaderIfNoneMatch), etag) {
			return c.SendStatus(fiber.StatusNotModified)
		}
		c.Set(fiber.HeaderContentType, "application/javascript; charset=utf-8")
		return c.Send(assets.BootstrapJS())
	}
}
