// mct-mcp exposes the MCT trainer as an MCP stdio server, so an agent can run
// a training session.
//
// Environment variables are the same as for mcttrener (MCT_DB, MCT_LOG_LEVEL,
// MCT_PARAPHRASE, OPENAI_API_KEY, ...). MCT_CONFIG names an optional YAML file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/config"
	"github.com/toradrage/mct-trener/internal/logging"
	"github.com/toradrage/mct-trener/internal/paraphrase"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/session"
	"github.com/toradrage/mct-trener/internal/simulator"
	"github.com/toradrage/mct-trener/internal/trainer"
)

func main() {
	cfg, err := config.Load(os.Getenv("MCT_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Logs go to stderr; stdout carries the protocol.
	logger, err := logging.New(cfg.Log.Level, false)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ruleCfg, err := cfg.Rules()
	if err != nil {
		logger.Fatal("load rules", zap.Error(err))
	}
	store, err := session.NewStore(cfg.DB)
	if err != nil {
		logger.Fatal("open store", zap.String("db", cfg.DB), zap.Error(err))
	}
	defer store.Close()

	p, closeP, err := cfg.Paraphraser()
	if err != nil {
		logger.Fatal("paraphraser", zap.Error(err))
	}
	defer closeP()

	pl := paraphrase.NewPolisher(p, nil, ruleCfg, cfg.Budget(), logger)
	svc := trainer.New(store, simulator.New(ruleCfg, nil), pl, nil, logger)

	server := newServer(svc)
	logger.Info("mct-mcp ready", zap.String("db", cfg.DB), zap.String("rules", ruleCfg.Version))
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Fatal("mct-mcp", zap.Error(err))
	}
}

func newServer(svc *trainer.Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mct-mcp",
		Version: "1.0.0",
	}, nil)

	// --- Tool: new_session ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "new_session",
		Description: "Start a training session with a simulated GAD patient at difficulty 1 (cooperative) to 3 (high meta-worry, early backfire). Returns the session ID.",
	}, newSessionHandler(svc))

	// --- Tool: submit_turn ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_turn",
		Description: "Say something to the patient using one intervention: sokratisk, eksperiment, mindfulness or verbal. During case formulation, also name the checklist item being asked about. Returns the patient reply, a rule trace and signals.",
	}, submitTurnHandler(svc))

	// --- Tool: start_intervention_phase ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_intervention_phase",
		Description: "Leave case formulation and start the intervention phase. Fails until all seven checklist items are covered.",
	}, startPhaseHandler(svc))

	// --- Tool: get_state ---
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_state",
		Description: "Show the patient's current belief state, CAS, meta-worry, phase and checklist progress.",
	}, getStateHandler(svc))

	return server
}

// --- Input types ---

type newSessionInput struct {
	Difficulty  int  `json:"difficulty"            jsonschema:"Patient difficulty 1-3"`
	Formulation bool `json:"formulation,omitempty" jsonschema:"Open with the seven-item case-formulation checklist"`
}

type submitTurnInput struct {
	SessionID    string `json:"session_id"         jsonschema:"Session ID from new_session"`
	Intervention string `json:"intervention"       jsonschema:"sokratisk, eksperiment, mindfulness or verbal"`
	Message      string `json:"message"            jsonschema:"What the therapist says"`
	Category     string `json:"category,omitempty" jsonschema:"Checklist item during formulation: trigger, whatIf, worryChain, emotions, positiveMeta, negativeMeta, casStrategies"`
}

type sessionInput struct {
	SessionID string `json:"session_id" jsonschema:"Session ID from new_session"`
}

// --- Handlers ---

func newSessionHandler(svc *trainer.Service) func(context.Context, *mcp.CallToolRequest, newSessionInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input newSessionInput) (*mcp.CallToolResult, any, error) {
		view, err := svc.NewSession(rules.Difficulty(input.Difficulty), input.Formulation)
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		return textResult(jsonString(view)), nil, nil
	}
}

func submitTurnHandler(svc *trainer.Service) func(context.Context, *mcp.CallToolRequest, submitTurnInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input submitTurnInput) (*mcp.CallToolResult, any, error) {
		key := belief.FormulationKey(input.Category)
		if key != "" && !key.Valid() {
			return textResult(fmt.Sprintf("unknown checklist item %q", input.Category)), nil, nil
		}
		res, err := svc.SubmitTurn(ctx, input.SessionID, trainer.TurnRequest{
			Intervention:     rules.Intervention(input.Intervention),
			Message:          input.Message,
			SelectedCategory: key,
		})
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		return textResult(jsonString(map[string]any{
			"reply":        res.Reply,
			"phase":        res.Phase,
			"turn":         res.TurnIndex,
			"relativeTurn": res.RelativeTurn,
			"trace":        res.Trace,
			"signals":      res.Signals,
			"flags":        res.Flags,
		})), nil, nil
	}
}

func startPhaseHandler(svc *trainer.Service) func(context.Context, *mcp.CallToolRequest, sessionInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input sessionInput) (*mcp.CallToolResult, any, error) {
		view, err := svc.StartInterventionPhase(input.SessionID)
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		return textResult(jsonString(view)), nil, nil
	}
}

func getStateHandler(svc *trainer.Service) func(context.Context, *mcp.CallToolRequest, sessionInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input sessionInput) (*mcp.CallToolResult, any, error) {
		view, err := svc.State(input.SessionID)
		if err != nil {
			return textResult(fmt.Sprintf("error: %v", err)), nil, nil
		}
		return textResult(jsonString(view)), nil, nil
	}
}

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonString(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal: %v"}`, err)
	}
	return string(data)
}
