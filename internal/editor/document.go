package editor

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"

	"github.com/joelrodriguezguzman/markdown/internal/config"
	"github.com/joelrodriguezguzman/markdown/internal/theme"
)

// StylesheetPath is the route serving the themed editor stylesheet.
const StylesheetPath = "/assets/app.css"

// SocketPath is the route of the session socket.
const SocketPath = "/ws/session"

// SavedNotice is the confirmation shown after a successful save.
const SavedNotice = "Markdown file saved."

var pageTemplate = template.Must(template.New("editor").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.EasyMDECSS}}">
<link rel="stylesheet" href="{{.FontAwesome}}">
<link rel="stylesheet" href="{{.StylesheetURL}}">
<script src="{{.EasyMDEJS}}"></script>
</head>
<body data-theme="{{.Theme}}" data-session="{{.SessionID}}">
<div id="notice" class="notice" hidden></div>
<textarea id="editor">
{{.Text}}</textarea>
<script>
(function () {
  var sessionID = {{.SessionID}};
  var socketPath = {{.SocketPath}};
  var seq = 0;
  var latestSeq = 0;
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + socketPath + "?id=" + encodeURIComponent(sessionID));

  function send(msg) {
    if (ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify(msg));
    }
  }

  function showNotice(level, text) {
    var el = document.getElementById("notice");
    el.textContent = text;
    el.className = "notice notice-" + level;
    el.hidden = false;
    setTimeout(function () { el.hidden = true; }, 4000);
  }

  function previewPanes() {
    return document.querySelectorAll(".editor-preview-active, .editor-preview-active-side");
  }

  function paneHTML(selector) {
    var el = document.querySelector(selector);
    if (!el) {
      return "";
    }
    return el.innerHTML.trim();
  }

  var easyMDE = new EasyMDE({
    element: document.getElementById("editor"),
    spellChecker: false,
    autofocus: true,
    forceSync: true,
    toolbar: [
      "bold", "italic", "heading", "|",
      "quote", "unordered-list", "ordered-list", "|",
      "link", "image", "table", "code", "|",
      "preview", "side-by-side", "fullscreen", "|",
      {
        name: "save",
        action: function (editor) {
          send({ type: "save", text: editor.value() });
        },
        className: "fa fa-save",
        title: "Save"
      },
      {
        name: "print",
        action: function (editor) {
          var content = paneHTML(".editor-preview-active");
          var isHtml = true;
          if (!content) {
            content = paneHTML(".editor-preview-active-side");
          }
          if (!content) {
            content = editor.value();
            isHtml = false;
          }
          send({ type: "print", content: content, isHtml: isHtml });
        },
        className: "fa fa-print",
        title: "Print"
      }
    ],
    previewRender: function (plainText, preview) {
      seq += 1;
      send({ type: "preview", text: plainText, seq: seq });
      return preview.innerHTML || "Loading...";
    }
  });

  easyMDE.codemirror.on("change", function () {
    if (previewPanes().length === 0) {
      return;
    }
    seq += 1;
    send({ type: "preview", text: easyMDE.value(), seq: seq });
  });

  ws.onmessage = function (event) {
    var msg = JSON.parse(event.data);
    switch (msg.type) {
    case "document":
      ws.onclose = null;
      ws.close();
      document.open();
      document.write(msg.html);
      document.close();
      break;
    case "preview":
      if (msg.seq < latestSeq) {
        return;
      }
      latestSeq = msg.seq;
      previewPanes().forEach(function (el) { el.innerHTML = msg.html; });
      break;
    case "notice":
      showNotice(msg.level, msg.text);
      break;
    case "printed":
      showNotice("info", "Print document opened: " + msg.path);
      break;
    }
  };

  ws.onclose = function () {
    showNotice("error", "Connection to mdview lost.");
  };
})();
</script>
</body>
</html>
`))

type pageData struct {
	Title         string
	Theme         string
	SessionID     string
	SocketPath    string
	StylesheetURL string
	EasyMDECSS    string
	EasyMDEJS     string
	FontAwesome   string
	Text          string
}

// StylesheetURL returns the stylesheet reference for a theme.
func StylesheetURL(kind theme.Kind) string {
	return StylesheetPath + "?" + url.Values{"theme": {kind.String()}}.Encode()
}

// renderPage executes the editor page template for one session state.
func renderPage(cdn config.CDNConfig, id, path string, kind theme.Kind, text string) (string, error) {
	data := pageData{
		Title:         filepath.Base(path),
		Theme:         kind.String(),
		SessionID:     id,
		SocketPath:    SocketPath,
		StylesheetURL: StylesheetURL(kind),
		EasyMDECSS:    cdn.EasyMDECSS,
		EasyMDEJS:     cdn.EasyMDEJS,
		FontAwesome:   cdn.FontAwesome,
		Text:          text,
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering editor page: %w", err)
	}
	return buf.String(), nil
}
