package render

import (
	"html/template"
	"io"
	"net/url"

	"github.com/dreschagin/image-gallery/pkg/imageclient"
)

const layout = `{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
ul.images li { margin: 0.25rem 0; }
img.preview { max-width: 100%; border: 1px solid #ddd; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{end}}
{{define "footer"}}</body>
</html>
{{end}}
{{define "list"}}{{template "header" .}}
<form action="/upload" method="post" enctype="multipart/form-data">
<input type="file" name="file" accept="image/png,image/jpeg">
<button type="submit">Upload</button>
</form>
{{if .Images}}<ul class="images">
{{range .Images}}<li><a href="/images/{{.Path}}">{{.ID}}</a></li>
{{end}}</ul>
{{else}}<p>No images yet.</p>
{{end}}{{template "footer" .}}{{end}}
{{define "image"}}{{template "header" .}}
<p><a href="/">Back to gallery</a></p>
<img class="preview" src="{{.DataURL}}" alt="{{.ID}}">
<p>{{.ContentType}}</p>
{{template "footer" .}}{{end}}
`

type listItem struct {
	ID   string
	Path string
}

type listPage struct {
	Title  string
	Images []listItem
}

type imagePage struct {
	Title       string
	ID          string
	ContentType string
	DataURL     template.URL
}

// HTMLRenderer renders the gallery pages served by the viewer.
// Image ids are escaped by html/template.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		tmpl: template.Must(template.New("gallery").Parse(layout)),
	}
}

func (r *HTMLRenderer) RenderList(w io.Writer, images []imageclient.ImageDescriptor) error {
	items := make([]listItem, 0, len(images))
	for _, image := range images {
		items = append(items, listItem{ID: image.ImageID, Path: url.PathEscape(image.ImageID)})
	}
	return r.tmpl.ExecuteTemplate(w, "list", listPage{Title: "Image gallery", Images: items})
}

func (r *HTMLRenderer) RenderImage(w io.Writer, imageID string, payload *imageclient.ImagePayload) error {
	if _, err := payload.Decode(); err != nil {
		return err
	}

	return r.tmpl.ExecuteTemplate(w, "image", imagePage{
		Title:       imageID,
		ID:          imageID,
		ContentType: payload.ContentType,
		// Decode succeeded, so the data is plain base64 and safe inside a data URL.
		DataURL: template.URL(payload.DataURL()),
	})
}
