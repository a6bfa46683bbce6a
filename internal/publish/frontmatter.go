package publish

import (
	"encoding/json"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"digesttracker/internal/model"
)

// Front matter encodings selectable via the frontmatter_format config key.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// frontMatter renders the metadata block for a publish request. The block
// always holds title and date; the blog's layout and frontmatter_fields are
// merged on top, then the caller's metadata, with later sources winning on
// key collision. List and map values nest natively in every encoding.
func frontMatter(req Request, now time.Time) (string, error) {
	fields := map[string]any{
		"title": req.Title,
		"date":  now.Format("2006-01-02"),
	}
	if layout := req.Config.String("layout"); layout != "" {
		fields["layout"] = layout
	}
	switch extra := req.Config["frontmatter_fields"].(type) {
	case model.Metadata:
		for k, v := range extra {
			fields[k] = v
		}
	case map[string]any:
		for k, v := range extra {
			fields[k] = v
		}
	}
	for k, v := range req.Metadata {
		fields[k] = v
	}

	switch req.Config.String("frontmatter_format") {
	case FormatTOML:
		raw, err := toml.Marshal(fields)
		if err != nil {
			return "", err
		}
		return "+++\n" + string(raw) + "+++\n", nil
	case FormatJSON:
		raw, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return "", err
		}
		return "<!--\n" + string(raw) + "\n-->\n", nil
	default:
		raw, err := yaml.Marshal(fields)
		if err != nil {
			return "", err
		}
		return "---\n" + string(raw) + "---\n", nil
	}
}
