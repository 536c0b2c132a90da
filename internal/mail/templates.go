package mail

import (
	"fmt"
	"html"
	"strings"
)

// SyncReportBody returns an HTML email body summarizing a Front sync
// run that recorded errors.
func SyncReportBody(total, imported, skipped, unmatched int, errs []string) string {
	var items strings.Builder
	for _, e := range errs {
		items.WriteString("      <li>")
		items.WriteString(html.EscapeString(e))
		items.WriteString("</li>\n")
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background-color: #f4f4f7; margin: 0; padding: 0; }
    .container { max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 8px rgba(0,0,0,0.08); }
    .header { background-color: #1a1a2e; color: #ffffff; padding: 24px 32px; }
    .header h1 { margin: 0; font-size: 20px; font-weight: 600; }
    .body { padding: 32px; color: #333333; line-height: 1.6; }
    .counts p { margin: 4px 0; font-size: 14px; color: #555555; }
    .counts strong { color: #333333; }
    .errors { background-color: #fff5f5; border-left: 4px solid #c53030; padding: 16px 20px; border-radius: 0 4px 4px 0; font-size: 14px; color: #333333; }
    .errors ul { margin: 0; padding-left: 20px; }
    .footer { padding: 20px 32px; text-align: center; font-size: 12px; color: #999999; border-top: 1px solid #eeeeee; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Front Sync Completed With Errors</h1>
    </div>
    <div class="body">
      <div class="counts">
        <p><strong>Messages:</strong> %d</p>
        <p><strong>Imported:</strong> %d</p>
        <p><strong>Skipped:</strong> %d</p>
        <p><strong>Unmatched:</strong> %d</p>
      </div>
      <div class="errors">
        <ul>
%s        </ul>
      </div>
    </div>
    <div class="footer">
      This report was sent by SkyTails.
    </div>
  </div>
</body>
</html>`, total, imported, skipped, unmatched, items.String())
}
