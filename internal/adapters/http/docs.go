package http

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/usecases"
)

const openAPIPath = "api/openapi.yaml"

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Multimap API | Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '/docs/openapi.yaml', dom_id: '#swagger-ui', deepLinking: true});
  </script>
</body>
</html>`

// demoWidgets is rendered by /docs/demo: a fitted multi-pin map followed by
// a single-pin map, so the shared scripts appear once for both.
var demoWidgets = []usecases.WidgetRequest{
	{
		InstanceID: "demo-1",
		Settings: domain.WidgetSettings{
			AspectRatio: "16:9",
			Pins: []any{
				map[string]any{"pins_name": "Guggenheim Museum", "pins_address": "Abandoibarra Etorb., 2, Bilbao", "pins_lat": "43.2687", "pins_lng": "-2.9340"},
				map[string]any{"pins_name": "Mercado de la Ribera", "pins_address": "Erribera Kalea, Bilbao", "pins_lat": 43.2562, "pins_lng": -2.9233},
				map[string]any{"pins_name": "San Mamés", "pins_address": "Raimundo Pérez Lezama, Bilbao", "pins_lat": 43.2641, "pins_lng": -2.9494},
			},
		},
	},
	{
		InstanceID: "demo-2",
		Settings: domain.WidgetSettings{
			AspectRatio: "4:3",
			Pins: []any{
				map[string]any{"pins_name": "Puente Colgante", "pins_address": "Portugalete", "pins_lat": 43.3231, "pins_lng": -3.0170, "pins_url": map[string]any{"url": "https://puente-colgante.com"}},
			},
		},
	},
}

// SetupDocs registers Swagger UI at /docs, the OpenAPI document at
// /docs/openapi.yaml and a rendered sample page at /docs/demo.
func SetupDocs(app *fiber.App, deps *Dependencies) {
	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(swaggerUIHTML)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		data, err := os.ReadFile(openAPIPath)
		if err != nil {
			return newError(c, fiber.StatusNotFound, codeNotFound, "openapi.yaml not found")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(data)
	})

	app.Get("/docs/demo", DemoPageHandler(deps))
}

// DemoPageHandler renders demoWidgets into a complete HTML document.
func DemoPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, skipped := deps.Widgets.RenderPage(c.UserContext(), demoWidgets)
		if len(skipped) > 0 {
			return domainError(c, skipped[0], "demo page could not be rendered")
		}

		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head><meta charset=\"UTF-8\"><title>Multimap demo</title></head>\n<body>\n")
		b.WriteString(body)
		b.WriteString("</body>\n</html>\n")

		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(b.String())
	}
}
