package convert

import (
	"fmt"
	"html"
	"strings"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>%s</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; line-height: 1.6; }
.resume-content { max-width: 1000px; margin: 0 auto; padding: 20px; background: #f5f5f5; border-radius: 5px; }
pre { white-space: pre-wrap; word-wrap: break-word; font-family: inherit; }
</style>
</head>
<body>
<div class="resume-content">
<pre>%s</pre>
</div>
</body>
</html>`

// RenderHTML wraps converted text in a standalone HTML page. Text is escaped
// and placed inside a single <pre> block.
func RenderHTML(title, text string) string {
	if strings.TrimSpace(title) == "" {
		title = "Resume"
	}
	return fmt.Sprintf(pageTemplate, html.EscapeString(title), html.EscapeString(text))
}
