package usecases

import (
	"fmt"
	"html/template"
	"strings"
)

// popoverTemplate is the info-window body shown when a marker is clicked.
// html/template escapes every field for the context it lands in, and
// rewrites unsafe URL schemes in href/src to "#ZgotmplZ".
var popoverTemplate = template.Must(template.New("popover").Parse(
	`<style>.no-decoration-on-hover:hover{text-decoration:none !important;}</style>` +
		`<div style="width:250px;">` +
		`{{if .URL}}<a class="no-decoration-on-hover" href="{{.URL}}">{{end}}` +
		`{{if .Image}}<div style="position:relative;height:0;overflow:hidden;padding-top:calc(200 / 300 * 100%);">` +
		`<img style="position:absolute;top:0;left:0;width:100%;height:100%;object-fit:cover;object-position:center;" src="{{.Image}}" alt="{{.Name}}" />` +
		`</div>{{end}}` +
		`<h1 style="font-family:'Outfit', sans-serif;font-size:22px;font-weight:600;color:rgb(0, 34, 51)">{{.Name}}</h1>` +
		`<h2 class="no-decoration-on-hover" style="font-family:'Outfit', sans-serif;font-size:16px;font-weight:400;color:rgb(0, 34, 51)">{{.Address}}</h2>` +
		`{{if .URL}}</a>{{end}}` +
		`</div>`,
))

type popoverData struct {
	Name    string
	Address string
	Image   string
	URL     string
}

// RenderPopover builds the escaped HTML fragment for one pin. A nil or empty
// image or url omits the image block or link wrapper.
func RenderPopover(name, address string, image, url *string) (string, error) {
	data := popoverData{Name: name, Address: address}
	if image != nil {
		data.Image = *image
	}
	if url != nil {
		data.URL = *url
	}

	var b strings.Builder
	if err := popoverTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render popover: %w", err)
	}
	return b.String(), nil
}
