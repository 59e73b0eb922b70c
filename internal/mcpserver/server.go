// Package mcpserver exposes the assistant over the Model Context
// Protocol, so agent tooling can draft replies, search persona knowledge,
// and submit corrections through stdio.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aly2302/email-assistant-llm/internal/feedback"
	"github.com/aly2302/email-assistant-llm/internal/knowledge"
	"github.com/aly2302/email-assistant-llm/internal/pipeline"
	"github.com/aly2302/email-assistant-llm/internal/retrieval"
)

// Config identifies the server to MCP clients.
type Config struct {
	Name    string
	Version string
}

// Server bridges MCP tool calls to the drafting services.
type Server struct {
	server   *mcp.Server
	pipeline *pipeline.Pipeline
	repo     *knowledge.Repository
	engine   *retrieval.Engine
	recorder *feedback.Recorder
	logger   *log.Logger
}

// NewServer builds the MCP server and registers the tool set.
func NewServer(cfg Config, p *pipeline.Pipeline, repo *knowledge.Repository, engine *retrieval.Engine, recorder *feedback.Recorder, logger *log.Logger) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		pipeline: p,
		repo:     repo,
		engine:   engine,
		recorder: recorder,
		logger:   logger,
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

type draftReplyInput struct {
	PersonaKey   string `json:"persona_key" jsonschema:"key of the persona to write as"`
	ThreadID     string `json:"thread_id,omitempty" jsonschema:"Gmail thread to reply to"`
	EmailText    string `json:"email_text,omitempty" jsonschema:"raw email text when no thread is given"`
	From         string `json:"from,omitempty" jsonschema:"From header of the email"`
	Instructions string `json:"instructions,omitempty" jsonschema:"extra drafting instructions"`
}

type draftReplyOutput struct {
	Draft             string `json:"draft"`
	RecipientCategory string `json:"recipient_category"`
	IncomingTone      string `json:"incoming_tone"`
}

type searchKnowledgeInput struct {
	PersonaKey string `json:"persona_key" jsonschema:"key of the persona whose knowledge to search"`
	Query      string `json:"query" jsonschema:"text to match facts and learned rules against"`
}

type searchKnowledgeOutput struct {
	Facts       []string `json:"facts"`
	Corrections []string `json:"corrections"`
}

type submitFeedbackInput struct {
	PersonaKey      string `json:"persona_key" jsonschema:"persona that produced the draft"`
	OriginalEmail   string `json:"original_email_text" jsonschema:"the email being replied to"`
	AIOriginal      string `json:"ai_original_response_text" jsonschema:"the draft the assistant produced"`
	UserCorrected   string `json:"user_corrected_output_text" jsonschema:"the corrected reply"`
	UserExplanation string `json:"user_explanation_text,omitempty" jsonschema:"why the correction was made"`
}

type submitFeedbackOutput struct {
	InferredRule string `json:"inferred_rule"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_reply",
		Description: "Draft a reply to an email as one of the configured personas.",
	}, s.handleDraftReply)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Retrieve the persona facts and learned rules relevant to a text.",
	}, s.handleSearchKnowledge)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "submit_feedback",
		Description: "Record a corrected draft so the assistant learns a reusable rule.",
	}, s.handleSubmitFeedback)
}

func (s *Server) handleDraftReply(ctx context.Context, _ *mcp.CallToolRequest, in draftReplyInput) (*mcp.CallToolResult, draftReplyOutput, error) {
	result, err := s.pipeline.DraftReply(ctx, pipeline.DraftRequest{
		PersonaKey:   in.PersonaKey,
		ThreadID:     in.ThreadID,
		EmailText:    in.EmailText,
		From:         in.From,
		Instructions: in.Instructions,
	})
	if err != nil {
		return nil, draftReplyOutput{}, err
	}

	return nil, draftReplyOutput{
		Draft:             result.Draft,
		RecipientCategory: result.Classification.RecipientCategory,
		IncomingTone:      string(result.Classification.IncomingTone),
	}, nil
}

func (s *Server) handleSearchKnowledge(_ context.Context, _ *mcp.CallToolRequest, in searchKnowledgeInput) (*mcp.CallToolResult, searchKnowledgeOutput, error) {
	persona, err := s.repo.Persona(in.PersonaKey)
	if err != nil {
		return nil, searchKnowledgeOutput{}, err
	}
	facts, err := s.repo.CombinedFacts(in.PersonaKey)
	if err != nil {
		return nil, searchKnowledgeOutput{}, err
	}

	result := s.engine.Retrieve(in.Query, facts, persona.Learned)
	return nil, searchKnowledgeOutput{
		Facts:       result.Facts,
		Corrections: result.Corrections,
	}, nil
}

func (s *Server) handleSubmitFeedback(ctx context.Context, _ *mcp.CallToolRequest, in submitFeedbackInput) (*mcp.CallToolResult, submitFeedbackOutput, error) {
	if in.UserCorrected == "" {
		return nil, submitFeedbackOutput{}, fmt.Errorf("user_corrected_output_text is required")
	}

	correction, err := s.recorder.Submit(ctx, feedback.Submission{
		PersonaKey:      in.PersonaKey,
		OriginalEmail:   in.OriginalEmail,
		AIOriginal:      in.AIOriginal,
		UserCorrected:   in.UserCorrected,
		UserExplanation: in.UserExplanation,
	})
	if err != nil {
		return nil, submitFeedbackOutput{}, err
	}

	return nil, submitFeedbackOutput{InferredRule: correction.InferredRule}, nil
}
