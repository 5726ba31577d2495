package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpatkar/verdeiq/internal/assess"
	"github.com/hpatkar/verdeiq/internal/bank"
	"github.com/hpatkar/verdeiq/internal/scoring"
	"github.com/hpatkar/verdeiq/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Assess *assess.Service
	Store  *storage.Store
}

// NewMCPServer creates an MCP server with all verdeiq tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"verdeiq",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("verdeiq — ESG maturity self-assessment: score answers, browse the question bank, and generate improvement roadmaps."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("score_answers",
			mcp.WithDescription("Score a set of questionnaire answers and return the GreenScore, tier badge, and per-pillar maturity. Nothing is persisted."),
			mcp.WithString("answers", mcp.Description("JSON object mapping question id to the selected option text"), mcp.Required()),
			mcp.WithString("sector", mcp.Description("Industry sector for weighting; defaults to the stored company profile")),
		),
		mcpScoreAnswers(deps),
	)

	s.AddTool(
		mcp.NewTool("list_questions",
			mcp.WithDescription("List the ESG question bank: ids, pillars, question text, and ordered answer options."),
			mcp.WithString("pillar", mcp.Description("Optional pillar filter: Environmental, Social, or Governance")),
		),
		mcpListQuestions(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_roadmap",
			mcp.WithDescription("Run a full assessment: score the answers, persist the result, and generate a narrative improvement roadmap."),
			mcp.WithString("answers", mcp.Description("JSON object mapping question id to the selected option text"), mcp.Required()),
		),
		mcpGenerateRoadmap(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"verdeiq://assessments/latest",
			"Latest Assessment",
			mcp.WithResourceDescription("Most recent stored assessment as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceLatest(deps),
	)

	return s
}

func mcpScoreAnswers(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		answers, ok := parseAnswersArg(req)
		if !ok {
			return mcpError("answers must be a JSON object mapping question id to option text"), nil
		}

		sector := req.GetString("sector", "")
		var result scoring.Result
		if sector != "" {
			result = deps.Assess.ScoreForSector(answers, sector)
		} else {
			result = deps.Assess.Score(answers)
		}

		b, err := json.Marshal(map[string]any{
			"result": result,
			"radar":  result.Radar(),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListQuestions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pillar := req.GetString("pillar", "")

		questions := deps.Assess.Bank().Questions
		if pillar != "" {
			var filtered []bank.Question
			for _, q := range questions {
				if string(q.Pillar) == pillar {
					filtered = append(filtered, q)
				}
			}
			questions = filtered
		}

		if len(questions) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(questions)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal questions: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGenerateRoadmap(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		answers, ok := parseAnswersArg(req)
		if !ok {
			return mcpError("answers must be a JSON object mapping question id to option text"), nil
		}

		out, err := deps.Assess.Run(ctx, answers)
		if err != nil {
			return mcpError(fmt.Sprintf("assessment failed: %v", err)), nil
		}

		resp := map[string]any{
			"assessment_id": out.Assessment.ID,
			"result":        out.Result,
			"roadmap":       out.Assessment.Narrative,
		}
		if out.Warning != "" {
			resp["warning"] = out.Warning
		}

		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceLatest(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		a, err := deps.Store.LatestAssessment()
		if err != nil {
			return nil, fmt.Errorf("failed to get latest assessment: %w", err)
		}

		b, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal assessment: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func parseAnswersArg(req mcp.CallToolRequest) (scoring.ResponseSet, bool) {
	raw, err := req.RequireString("answers")
	if err != nil {
		return nil, false
	}
	var answers scoring.ResponseSet
	if err := json.Unmarshal([]byte(raw), &answers); err != nil || len(answers) == 0 {
		return nil, false
	}
	return answers, true
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
