package server

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mj1618/bear-mcp/internal/bear"
)

type toolDef struct {
	tool   mcp.Tool
	family string
	cached bool
	token  bool
	handle func(s *Server, ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

var toolDefs = []toolDef{
	{
		tool: mcp.NewTool("open_note",
			mcp.WithDescription("Open a note identified by its title or id and return its content."),
			mcp.WithString("id", mcp.Description("note unique identifier")),
			mcp.WithString("title", mcp.Description("note title")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		family: bear.FamilyOpenNote,
		handle: (*Server).handleOpenNote,
	},
	{
		tool: mcp.NewTool("create",
			mcp.WithDescription("Create a new note and return its unique identifier. Empty notes are not allowed."),
			mcp.WithString("title", mcp.Description("note title")),
			mcp.WithString("text", mcp.Description("note body")),
			mcp.WithArray("tags", mcp.Description("list of tags"), mcp.WithStringItems()),
			mcp.WithBoolean("timestamp", mcp.Description("prepend the current date and time to the text")),
		),
		family: bear.FamilyCreate,
		handle: (*Server).handleCreate,
	},
	{
		tool: mcp.NewTool("tags",
			mcp.WithDescription("Return all the tags currently displayed in Bear's sidebar."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		family: bear.FamilyTags,
		cached: true,
		token:  true,
		handle: (*Server).handleTags,
	},
	{
		tool: mcp.NewTool("open_tag",
			mcp.WithDescription("Show all the notes which have a selected tag in bear."),
			mcp.WithString("name", mcp.Description("tag name or a list of tags divided by comma"), mcp.Required()),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		family: bear.FamilyOpenTag,
		cached: true,
		token:  true,
		handle: (*Server).handleOpenTag,
	},
	{
		tool: mcp.NewTool("todo",
			mcp.WithDescription("Select the Todo sidebar item."),
			mcp.WithString("search", mcp.Description("string to search")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		family: bear.FamilyTodo,
		cached: true,
		token:  true,
		handle: (*Server).handleTodo,
	},
	{
		tool: mcp.NewTool("today",
			mcp.WithDescription("Select the Today sidebar item."),
			mcp.WithString("search", mcp.Description("string to search")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		family: bear.FamilyToday,
		cached: true,
		token:  true,
		handle: (*Server).handleToday,
	},
	{
		tool: mcp.NewTool("search",
			mcp.WithDescription("Show search results in Bear for all notes or for a specific tag."),
			mcp.WithString("term", mcp.Description("string to search")),
			mcp.WithString("tag", mcp.Description("tag to search into")),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		family: bear.FamilySearch,
		cached: true,
		token:  true,
		handle: (*Server).handleSearch,
	},
	{
		tool: mcp.NewTool("grab_url",
			mcp.WithDescription("Create a new note with the content of a web page and return its unique identifier."),
			mcp.WithString("url", mcp.Description("url to grab"), mcp.Required()),
			mcp.WithArray("tags",
				mcp.Description("list of tags. If tags are specified in Bear's web content preferences, this parameter is ignored."),
				mcp.WithStringItems(),
			),
		),
		family: bear.FamilyGrabURL,
		handle: (*Server).handleGrabURL,
	},
	{
		tool: mcp.NewTool("add_text",
			mcp.WithDescription("Append or prepend text to a note identified by its title or id. Encrypted notes can't be accessed with this call."),
			mcp.WithString("text", mcp.Description("text to add")),
			mcp.WithString("id", mcp.Description("optional note unique identifier")),
			mcp.WithString("title", mcp.Description("optional title of the note")),
			mcp.WithString("header", mcp.Description("add the text to the corresponding header inside the note")),
			mcp.WithString("mode",
				mcp.Description("allowed values are prepend, append, replace_all and replace"),
				mcp.Enum(bear.AddTextModes...),
			),
			mcp.WithBoolean("new_line", mcp.Description("force the text to appear on a new line inside the note (only if mode is append)")),
			mcp.WithArray("tags", mcp.Description("optional list of tags"), mcp.WithStringItems()),
			mcp.WithBoolean("timestamp", mcp.Description("prepend the current date and time to the text")),
		),
		family: bear.FamilyAddText,
		handle: (*Server).handleAddText,
	},
}

// ToolInfo describes one tool for the `tools` command.
type ToolInfo struct {
	Name          string      `yaml:"name"                 json:"name"`
	Family        string      `yaml:"family"               json:"family"`
	Description   string      `yaml:"description"          json:"description"`
	ReadOnly      bool        `yaml:"read_only"            json:"read_only"`
	RequiresToken bool        `yaml:"requires_token"       json:"requires_token"`
	Cached        bool        `yaml:"cached"               json:"cached"`
	Params        []ParamInfo `yaml:"params,omitempty"     json:"params,omitempty"`
}

// ParamInfo describes one tool argument.
type ParamInfo struct {
	Name        string `yaml:"name"                  json:"name"`
	Type        string `yaml:"type"                  json:"type"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty"    json:"required,omitempty"`
}

// Catalog lists every tool with its input schema, in registration order.
func Catalog() []ToolInfo {
	out := make([]ToolInfo, 0, len(toolDefs))
	for _, d := range toolDefs {
		info := ToolInfo{
			Name:          d.tool.Name,
			Family:        d.family,
			Description:   d.tool.Description,
			ReadOnly:      d.tool.Annotations.ReadOnlyHint != nil && *d.tool.Annotations.ReadOnlyHint,
			RequiresToken: d.token,
			Cached:        d.cached,
		}
		required := make(map[string]bool, len(d.tool.InputSchema.Required))
		for _, r := range d.tool.InputSchema.Required {
			required[r] = true
		}
		for name, raw := range d.tool.InputSchema.Properties {
			p := ParamInfo{Name: name, Required: required[name]}
			if prop, ok := raw.(map[string]interface{}); ok {
				p.Type, _ = prop["type"].(string)
				p.Description, _ = prop["description"].(string)
			}
			info.Params = append(info.Params, p)
		}
		sort.Slice(info.Params, func(i, j int) bool { return info.Params[i].Name < info.Params[j].Name })
		out = append(out, info)
	}
	return out
}
