package analyzer

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/lexbaux/generalinfo"
	"github.com/hazyhaar/lexbaux/horosafe"
	"github.com/hazyhaar/lexbaux/idgen"
	"github.com/hazyhaar/lexbaux/kit"
	"github.com/hazyhaar/lexbaux/lease"
)

// MCPOptions configures the MCP tool surface.
type MCPOptions struct {
	// Root confines lexbaux_analyze_pdf to files under this directory.
	// Empty allows any path.
	Root string
}

// RegisterMCP registers the analysis tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server, opts MCPOptions) {
	s.registerAnalyzeText(srv)
	s.registerAnalyzeFile(srv, opts.Root)
	s.registerGeneralInfo(srv)
	s.registerDemo(srv)
}

func (s *Service) tool(name string, endpoint kit.Endpoint) kit.Endpoint {
	return kit.Chain(traced, kit.Logging(s.logger, name))(endpoint)
}

// traced gives each MCP call a trace id, as shield.TraceID does for HTTP.
func traced(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		if kit.GetTraceID(ctx) == "" {
			ctx = kit.WithTraceID(ctx, idgen.TraceID())
		}
		return next(ctx, req)
	}
}

type analyzeTextReq struct {
	Text     string         `json:"text"`
	Filename string         `json:"filename"`
	Analysis map[string]any `json:"analysis"`
}

func (s *Service) registerAnalyzeText(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lexbaux_analyze_text",
		Description: "Analyse the text of a French commercial lease: clause findings, risk score and level, negotiation checklist, parties.",
		InputSchema: kit.InputSchema(map[string]any{
			"text":     map[string]any{"type": "string", "description": "Full lease text"},
			"filename": map[string]any{"type": "string", "description": "Optional source file name"},
			"analysis": map[string]any{"type": "object", "description": "Optional upstream structured data (parties, bien)"},
		}, []string{"text"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*analyzeTextReq)
		return s.AnalyzeText(ctx, r.Text, TextOptions{Filename: r.Filename, Analysis: r.Analysis})
	}
	kit.RegisterMCPTool(srv, tool, s.tool(tool.Name, endpoint), kit.DecodeArgs[analyzeTextReq])
}

type analyzeFileReq struct {
	Path string `json:"path"`
}

func (s *Service) registerAnalyzeFile(srv *mcp.Server, root string) {
	tool := &mcp.Tool{
		Name:        "lexbaux_analyze_pdf",
		Description: "Extract and analyse a lease document from disk (pdf, txt, md).",
		InputSchema: kit.InputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "Path to the lease document"},
		}, []string{"path"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*analyzeFileReq)
		if r.Path == "" {
			return nil, ErrNoFile
		}
		path := r.Path
		if root != "" {
			p, err := horosafe.SafePath(root, r.Path)
			if err != nil {
				return nil, err
			}
			path = p
		}
		return s.AnalyzeFile(ctx, path)
	}
	kit.RegisterMCPTool(srv, tool, s.tool(tool.Name, endpoint), kit.DecodeArgs[analyzeFileReq])
}

type generalInfoReq struct {
	Text     string         `json:"text"`
	Analysis map[string]any `json:"analysis"`
}

type generalInfoResp struct {
	Info    generalinfo.Info `json:"generalInfo"`
	Missing []string         `json:"missing"`
}

func (s *Service) registerGeneralInfo(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lexbaux_general_info",
		Description: "Extract parties, premises, use and rent from lease text; lists the fields that were not found.",
		InputSchema: kit.InputSchema(map[string]any{
			"text":     map[string]any{"type": "string", "description": "Lease text"},
			"analysis": map[string]any{"type": "object", "description": "Optional upstream structured data"},
		}, nil),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*generalInfoReq)
		info := s.GeneralInfo(generalinfo.Source{Text: r.Text, Analysis: r.Analysis})
		missing := info.Missing()
		if missing == nil {
			missing = []string{}
		}
		return generalInfoResp{Info: info, Missing: missing}, nil
	}
	kit.RegisterMCPTool(srv, tool, s.tool(tool.Name, endpoint), kit.DecodeArgs[generalInfoReq])
}

type demoReq struct {
	Name string `json:"name"`
}

func (s *Service) registerDemo(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "lexbaux_demo",
		Description: fmt.Sprintf("Return a canned demo report. Names: %v. Without a name, lists them.", lease.DemoNames()),
		InputSchema: kit.InputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "Demo name"},
		}, nil),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*demoReq)
		if r.Name == "" {
			return map[string]any{"demos": lease.DemoNames()}, nil
		}
		return lease.Demo(r.Name)
	}
	kit.RegisterMCPTool(srv, tool, s.tool(tool.Name, endpoint), kit.DecodeArgs[demoReq])
}
