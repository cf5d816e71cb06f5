package server

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"
	"github.com/yuin/goldmark"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

var pageTemplate = template.Must(template.New("chat").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Document assistant</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; color: #222; }
.turn { padding: .5rem 1rem; margin: .5rem 0; border-radius: .5rem; }
.user { background: #eef3fb; }
.assistant { background: #f6f6f6; }
.notice { color: #a33; }
details { margin: .25rem 0; }
form { display: flex; gap: .5rem; margin-top: 1rem; }
input[name=question] { flex: 1; padding: .5rem; }
</style>
</head>
<body>
<h1>Document assistant</h1>
{{range .Turns}}<div class="turn {{.Role}}">{{.HTML}}</div>
{{else}}<p>Ask a question about the document.</p>
{{end}}
{{if .Failed}}<p class="notice">{{.Fallback}}</p>{{end}}
{{if .Sources}}<h2>Sources</h2>
{{range .Sources}}<details><summary>{{.Label}}</summary><p>{{.Preview}}</p></details>
{{end}}{{end}}
<form method="post" action="/">
<input name="question" autocomplete="off" autofocus placeholder="Your question">
<button type="submit">Ask</button>
</form>
</body>
</html>
`))

type turnView struct {
	Role models.Role
	HTML template.HTML
}

type sourceView struct {
	Label   string
	Preview string
}

type pageData struct {
	Turns    []turnView
	Sources  []sourceView
	Failed   bool
	Fallback string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	turns := sess.Memory.Turns()

	data := pageData{
		Turns:    make([]turnView, 0, len(turns)),
		Sources:  s.sourceViews(sess.LastSources()),
		Failed:   r.URL.Query().Get("failed") == "1",
		Fallback: models.FallbackAnswer,
	}
	for _, turn := range turns {
		data.Turns = append(data.Turns, turnView{Role: turn.Role, HTML: renderMarkdown(turn.Content)})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Rendering chat page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	question := strings.TrimSpace(r.PostForm.Get("question"))
	sess := s.session(w, r)
	target := "/"
	if question != "" {
		if out := s.answerer.Answer(r.Context(), sess, question); out.Failed() {
			target = "/?failed=1"
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) sourceViews(sources []models.Source) []sourceView {
	views := make([]sourceView, 0, len(sources))
	for i, src := range sources {
		label := "Source " + strconv.Itoa(i+1)
		if src.Page != nil {
			label += ", page " + strconv.Itoa(*src.Page)
		}
		views = append(views, sourceView{Label: label, Preview: helper.Truncate(src.Text, s.previewLimit)})
	}
	return views
}

// renderMarkdown converts answer markdown to HTML. Raw HTML in the input is not passed through.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
