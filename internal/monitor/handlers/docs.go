package handlers

import (
	_ "embed"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// API Docs
// ============================================================

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPISpec отдаёт описание API в формате OpenAPI YAML.
func OpenAPISpec(c fiber.Ctx) error {
	c.Set("Content-Type", "application/yaml")
	return c.Send(openAPISpec)
}

// SwaggerUI отдаёт страницу Swagger UI, читающую описание из specURL.
func SwaggerUI(specURL string) fiber.Handler {
	page := `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>Process Monitor API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '` + specURL + `',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
    });
  };
</script>
</body>
</html>`

	return func(c fiber.Ctx) error {
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.SendString(page)
	}
}
