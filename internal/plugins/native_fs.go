package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const maxReadBytes = 256 * 1024

// FilesManifest describes the built-in filesystem tools.
func FilesManifest() *PluginManifest {
	return &PluginManifest{
		Name:        "files",
		Description: "Read, write, and list files on the host",
		Provider:    "native",
		Tools: []ToolSpec{
			{
				Name:        "read_file",
				Description: "Read a text file and return its contents",
				Parameters: map[string]ParamSpec{
					"path": {Type: "string", Description: "Path of the file to read", Required: true},
				},
			},
			{
				Name:        "write_file",
				Description: "Write content to a file, creating parent directories as needed",
				Dangerous:   true,
				Parameters: map[string]ParamSpec{
					"path":    {Type: "string", Description: "Path of the file to write", Required: true},
					"content": {Type: "string", Description: "Content to write", Required: true},
				},
			},
			{
				Name:        "list_dir",
				Description: "List the entries of a directory",
				Parameters: map[string]ParamSpec{
					"path": {Type: "string", Description: "Directory to list", Required: true},
				},
			},
			{
				Name:        "glob_files",
				Description: "Find files matching a glob pattern, ** is supported",
				Parameters: map[string]ParamSpec{
					"root":    {Type: "string", Description: "Directory to search from", Required: true},
					"pattern": {Type: "string", Description: "Glob pattern, e.g. **/*.go", Required: true},
				},
			},
		},
	}
}

// fsArgs is the union of arguments across the filesystem tools.
type fsArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Root    string `json:"root"`
	Pattern string `json:"pattern"`
}

// fsHandlers maps each filesystem tool name to its implementation.
var fsHandlers = map[string]func(fsArgs) (string, error){
	"read_file":  fsRead,
	"write_file": fsWrite,
	"list_dir":   fsList,
	"glob_files": fsGlob,
}

// fsTool binds one filesystem tool spec to its handler.
type fsTool struct {
	spec *ToolSpec
	run  func(fsArgs) (string, error)
}

// NewFileTools returns one InvokableTool per filesystem tool spec.
func NewFileTools() map[string]tool.InvokableTool {
	manifest := FilesManifest()
	tools := make(map[string]tool.InvokableTool, len(manifest.Tools))
	for i := range manifest.Tools {
		spec := &manifest.Tools[i]
		tools[spec.Name] = &fsTool{spec: spec, run: fsHandlers[spec.Name]}
	}
	return tools
}

func (t *fsTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.spec.einoInfo(), nil
}

func (t *fsTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args fsArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}
	if t.run == nil {
		return "", fmt.Errorf("unknown file tool %q", t.spec.Name)
	}
	return t.run(args)
}

func fsRead(args fsArgs) (string, error) {
	if args.Path == "" {
		return "", fmt.Errorf("path is required")
	}
	info, err := os.Stat(args.Path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxReadBytes {
		return "", fmt.Errorf("file %s is too large (%d bytes, max %d)", args.Path, info.Size(), maxReadBytes)
	}
	data, err := os.ReadFile(args.Path)
	return string(data), err
}

func fsWrite(args fsArgs) (string, error) {
	if args.Path == "" {
		return "", fmt.Errorf("path is required")
	}
	if err := os.MkdirAll(filepath.Dir(args.Path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(args.Path, []byte(args.Content), 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(args.Content), args.Path), nil
}

func fsList(args fsArgs) (string, error) {
	dir := args.Path
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name()+"/")
		} else {
			names = append(names, e.Name())
		}
	}
	return marshalSorted(names)
}

func fsGlob(args fsArgs) (string, error) {
	root := args.Root
	if root == "" {
		root = "."
	}
	if args.Pattern == "" {
		return "", fmt.Errorf("pattern is required")
	}
	matches, err := doublestar.Glob(os.DirFS(root), args.Pattern)
	if err != nil {
		return "", fmt.Errorf("glob %q: %w", args.Pattern, err)
	}
	return marshalSorted(matches)
}

func marshalSorted(names []string) (string, error) {
	sort.Strings(names)
	data, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
