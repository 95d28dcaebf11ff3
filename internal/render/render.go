// Package render turns a digest structure into an HTML document. Thin by
// design: all selection and ordering decisions happen upstream.
package render

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"curator/internal/core"
)

const digestTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Daily Digest — {{.Date.Format "2006-01-02"}}</title>
</head>
<body>
<h1>Daily Digest — {{.Date.Format "2006-01-02"}}</h1>
<p class="editorial-note">{{.Plan.EditorialNote}}</p>

<h2>Must Read</h2>
<ul>
{{range .MustRead}}<li><a href="{{.Link}}">{{.Title}}</a> <em>({{.Publisher}})</em>{{if .Reason}} — {{.Reason}}{{end}}<br>{{.Summary}}</li>
{{end}}</ul>

{{range .Topics}}<h2>{{.Name}}</h2>
<ul>
{{range .Items}}<li><a href="{{.Link}}">{{.Title}}</a> <em>({{.Publisher}})</em>{{if .Reason}} — {{.Reason}}{{end}}<br>{{.Summary}}</li>
{{end}}</ul>
{{end}}
{{if .NiceToHave}}<h2>Nice to Have</h2>
<ul>
{{range .NiceToHave}}<li><a href="{{.Link}}">{{.Title}}</a> <em>({{.Publisher}})</em></li>
{{end}}</ul>
{{end}}
<footer><small>Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}</small></footer>
</body>
</html>
`

type renderItem struct {
	Title     string
	Link      string
	Publisher string
	Summary   string
	Reason    string
}

type renderTopic struct {
	Name  string
	Items []renderItem
}

type renderData struct {
	Date        time.Time
	Plan        core.DigestPlan
	MustRead    []renderItem
	Topics      []renderTopic
	NiceToHave  []renderItem
	GeneratedAt time.Time
}

// HTMLRenderer renders digest structures with a fixed template.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer compiles the digest template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("digest").Parse(digestTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render produces the HTML document for a digest structure.
func (r *HTMLRenderer) Render(structure *core.DigestStructure) (string, error) {
	data := renderData{
		Date:        structure.Date,
		Plan:        structure.Plan,
		GeneratedAt: structure.GeneratedAt,
	}

	lookup := func(it core.PlanItem) renderItem {
		out := renderItem{Reason: it.Reason}
		if snapshot, ok := structure.ItemsMetadata[it.Fingerprint]; ok {
			out.Title = snapshot.Title
			out.Link = snapshot.Link
			out.Publisher = snapshot.Publisher
			out.Summary = snapshot.AISummary
		}
		return out
	}

	for _, it := range structure.Plan.MustRead {
		data.MustRead = append(data.MustRead, lookup(it))
	}

	names := make([]string, 0, len(structure.Plan.Topics))
	for name := range structure.Plan.Topics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		group := structure.Plan.Topics[name]
		topic := renderTopic{Name: name}
		for _, it := range group.PriorityItems {
			topic.Items = append(topic.Items, lookup(it))
		}
		for _, it := range group.OtherItems {
			topic.Items = append(topic.Items, lookup(it))
		}
		data.Topics = append(data.Topics, topic)
	}

	for _, print := range structure.Plan.NiceToHave {
		data.NiceToHave = append(data.NiceToHave, lookup(core.PlanItem{Fingerprint: print}))
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return sb.String(), nil
}
