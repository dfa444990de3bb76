package main

import (
	"fmt"
	"html/template"

	"tablescan/models"
)

type uploadedView struct {
	Original string
	Saved    string
	Hash     string
	Cells    int
	Error    string
}

type tableView struct {
	Hash    string
	Columns int
	Header  string
	Grid    [][]*models.Cell
}

var templateFuncs = template.FuncMap{
	"score": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

const uploadHTML = `<!doctype html>
<title>Upload File</title>
<h1>Upload a file</h1>
<form action="/python/" method="post" enctype="multipart/form-data">
    <input type="file" name="file">
    <input type="submit" value="Upload">
</form>
<p><a href="/python/files">Uploaded files</a></p>
`

const uploadedHTML = `<html>
<head><meta charset="UTF-8"><title>Upload Success</title></head>
<body>
    <h2>File uploaded successfully!</h2>
    <p>Original File: {{ .Original }}</p>
    <p>Saved File: {{ .Saved }}</p>
    <a href="/opencv/{{ .Saved }}" target="_blank">View File</a>
    {{ if .Hash }}<p><a href="/python/view_table?file={{ .Hash }}">View Table</a> ({{ .Cells }} cells)</p>{{ end }}
    {{ if .Error }}<p class="error">Table not processed: {{ .Error }}</p>{{ end }}
</body>
</html>
`

const filesHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
    <meta charset="UTF-8">
    <title>Image List</title>
    <style>
        .img_div { margin: 10px; float: left; }
        .img { width: 200px; }
        .img_name { margin: 0; }
        .clear { clear: both; }
    </style>
</head>
<body>
    <a href="/python/">Upload</a>
    <div class="list">
    {{ range .Files }}
        <div class="img_div">
            <p class="img_name">{{ .Name }}</p>
            <a href="/python/view_table?file={{ .Hash }}">
                <img class="img" src="/opencv/{{ .Name }}" alt="{{ .Name }}">
            </a>
        </div>
    {{ end }}
    <div class="clear"></div>
    </div>
</body>
</html>
`

const viewTableHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
    <meta charset="UTF-8">
    <title>Table View</title>
    <style>
        table { border-collapse: collapse; text-align: center; float: left; margin-right: 10px; }
        .header_row { height: 50px; background-size: contain; background-position: center; background-repeat: no-repeat; }
        .td { border: 1px solid red; width: 200px; height: 200px; background-size: cover; background-position: center; background-repeat: no-repeat; font-size: xx-small; overflow: hidden; }
        .type_empty { font-size: large; font-weight: bold; color: #555; }
        .type_text { font-size: large; font-weight: bold; color: blue; }
        .store, .store_score { font-weight: bold; color: red; font-size: large; }
        .ocr { font-size: medium; }
    </style>
</head>
<body>
    <h2>Table: {{ .Hash }}</h2>
    <table>
        {{ if .Header }}<tr>
            <td colspan="{{ .Columns }}" id="header_row" class="header_row" style="background-image: url('/opencv/{{ .Hash }}/{{ .Header }}')"></td>
        </tr>{{ end }}
        {{ $hash := .Hash }}
        {{ range .Grid }}<tr>
            {{ range . }}{{ if . }}<td class="td" id="cell_{{ .Row }}_{{ .Column }}" style="background-image: url('/opencv/{{ $hash }}/{{ .Filename }}')">
                {{ .Filename }}<br/><span class="type_{{ .Type }}">{{ .Type }}</span>
                {{ if .StoreMatch }}{{ with index .StoreMatch 0 }}<br/><span class="store">{{ .Label }}</span><br/><span class="store_score">{{ score .Score }}</span>{{ end }}{{ end }}
                {{ if .Text }}<br/><span class="ocr">{{ .Text }}</span>{{ end }}
            </td>{{ else }}<td class="td"></td>{{ end }}{{ end }}
        </tr>{{ end }}
    </table>
</body>
</html>
`

func loadTemplates() (*template.Template, error) {
	root := template.New("").Funcs(templateFuncs)
	for name, body := range map[string]string{
		"upload.html":     uploadHTML,
		"uploaded.html":   uploadedHTML,
		"files.html":      filesHTML,
		"view_table.html": viewTableHTML,
	} {
		if _, err := root.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return root, nil
}
