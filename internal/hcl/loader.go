package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/pgelab/haplorun/internal/config"
	"github.com/pgelab/haplorun/internal/ctxlog"
)

// toolsFileSchema is the top-level structure of a tools file: a sequence of
// `tool "name" { ... }` blocks.
type toolsFileSchema struct {
	Tools []*toolBlock `hcl:"tool,block"`
}

// toolBlock is the HCL schema for a single tool definition.
type toolBlock struct {
	Name         string   `hcl:"name,label"`
	Executable   string   `hcl:"executable"`
	Args         []string `hcl:"args"`
	DefaultModel string   `hcl:"default_model,optional"`
	OutputTag    string   `hcl:"output_tag,optional"`
	MarkerSuffix string   `hcl:"marker_suffix,optional"`
}

// evalContext exposes the per-job substitution placeholders as HCL
// variables, so tools files can write `placeholder.input` instead of the
// raw "{input}" literal. Both spellings decode to the same template.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"placeholder": cty.ObjectVal(map[string]cty.Value{
				"input":   cty.StringVal("{input}"),
				"model":   cty.StringVal("{model}"),
				"seed":    cty.StringVal("{seed}"),
				"prefix":  cty.StringVal("{prefix}"),
				"threads": cty.StringVal("{threads}"),
			}),
		},
	}
}

// LoadTools reads a tools file from disk and returns the tool definitions
// it declares, keyed by name.
func LoadTools(ctx context.Context, path string) (map[string]config.Tool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tools file: %w", err)
	}
	return ParseTools(ctx, src, path)
}

// ParseTools decodes tools-file source into the config model. The filename
// is used only for diagnostics.
func ParseTools(ctx context.Context, src []byte, filename string) (map[string]config.Tool, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing tools file.", "filename", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var schema toolsFileSchema
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &schema); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	tools := make(map[string]config.Tool, len(schema.Tools))
	for _, block := range schema.Tools {
		if _, dup := tools[block.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate tool definition %q", filename, block.Name)
		}
		tool, err := translateTool(block)
		if err != nil {
			return nil, fmt.Errorf("%s: tool %q: %w", filename, block.Name, err)
		}
		tools[block.Name] = tool
	}

	logger.Debug("Tools file parsed.", "tool_count", len(tools))
	return tools, nil
}

// translateTool converts the HCL-specific schema into the agnostic model,
// applying per-field defaults.
func translateTool(block *toolBlock) (config.Tool, error) {
	if block.Executable == "" {
		return config.Tool{}, fmt.Errorf("executable must not be empty")
	}
	if len(block.Args) == 0 {
		return config.Tool{}, fmt.Errorf("args must not be empty")
	}

	tool := config.Tool{
		Name:         block.Name,
		Executable:   block.Executable,
		Args:         block.Args,
		DefaultModel: block.DefaultModel,
		OutputTag:    block.OutputTag,
		MarkerSuffix: block.MarkerSuffix,
	}
	// The default tag carries the model so that runs differing only in
	// model derive distinct prefixes and markers.
	if tool.OutputTag == "" {
		tool.OutputTag = block.Name + ".{model}"
	}
	if tool.MarkerSuffix == "" {
		tool.MarkerSuffix = ".iqtree"
	}
	return tool, nil
}
