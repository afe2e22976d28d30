package config

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/graph"
)

// LinkFunc renders the wiki link of a service. An empty result means no link.
// Results that are not http or https URLs are dropped.
type LinkFunc func(*graph.Service) string

// Renderer parses the link template. It returns a nil func when no template
// is configured.
//
// The template sees the service, so fields like .Name, .FullName, .Module
// and .Category are available together with the sprig functions:
//
//	https://wiki.example.com/{{ .Category }}/{{ .Name | lower | replace "_" "-" }}
func (l Links) Renderer() (LinkFunc, error) {
	if l.Template == "" {
		return nil, nil
	}
	tmpl, err := template.New("link").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(l.Template)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse link template")
	}
	return func(svc *graph.Service) string {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, svc); err != nil {
			return ""
		}
		link := buf.String()
		if errors.ValidateURL(link) != nil {
			return ""
		}
		return link
	}, nil
}
