package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/catalog/builtin"
	"github.com/propertyshodh/shodh/pkg/draft"
	"github.com/propertyshodh/shodh/pkg/logger"
	"github.com/propertyshodh/shodh/pkg/wizard"
)

// maxSessions bounds the in-memory session table; the least recently used
// session is closed when it overflows.
const maxSessions = 256

// Handlers holds the live wizard sessions.
type Handlers struct {
	drafts   draft.Store
	log      *logger.Logger
	sessions *lru.Cache[string, *wizard.Engine]
}

// NewHandlers creates the session table. drafts may be nil.
func NewHandlers(drafts draft.Store, log *logger.Logger) *Handlers {
	sessions, _ := lru.NewWithEvict[string, *wizard.Engine](maxSessions, func(_ string, e *wizard.Engine) {
		_ = e.Close()
	})
	return &Handlers{drafts: drafts, log: log, sessions: sessions}
}

// Close flushes and closes every session.
func (h *Handlers) Close() {
	h.sessions.Purge()
}

// HandleValidate implements the wizard/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	doc, errs := catalog.ValidateFile(path)
	if catalog.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	msg := fmt.Sprintf("✓ %s is valid (%d steps)", doc.Meta.Name, len(doc.Steps))
	if len(errs) > 0 {
		msg += "\n" + formatErrors(errs)
	}
	return textResult(msg), nil
}

// HandleSchema implements the wizard/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := catalog.GenerateJSONSchema()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// HandleStart implements the wizard/start MCP tool.
func (h *Handlers) HandleStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ref, _ := args["catalog"].(string)
	if ref == "" {
		ref = builtin.Default
	}
	userID, _ := args["user_id"].(string)

	cat, err := builtin.Resolve(ref)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	opts := []wizard.Option{wizard.WithLogger(h.log)}
	var eng *wizard.Engine
	resumed := false
	if h.drafts != nil {
		eng, resumed = wizard.Open(ctx, cat, h.drafts, draft.KeyFor(cat.Name(), userID), opts...)
	} else {
		eng = wizard.New(cat, opts...)
	}

	id := uuid.NewString()
	h.sessions.Add(id, eng)
	h.log.Info("wizard session started", "session", id, "catalog", cat.Name(), "resumed", resumed)

	st := stateOf(id, eng)
	st.Resumed = resumed
	return jsonResult(st, false), nil
}

// HandleAnswer implements the wizard/answer MCP tool.
func (h *Handlers) HandleAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, eng, res := h.session(req)
	if res != nil {
		return res, nil
	}
	value := req.GetArguments()["value"]
	if value == nil {
		value = ""
	}
	out := eng.SubmitAnswer(value)
	st := stateOf(id, eng)
	st.Outcome = out.Status.String()
	st.Reason = out.Reason
	return jsonResult(st, out.Status == wizard.Invalid), nil
}

// HandleBack implements the wizard/back MCP tool.
func (h *Handlers) HandleBack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, eng, res := h.session(req)
	if res != nil {
		return res, nil
	}
	st := stateOf(id, eng)
	if !eng.GoBack() {
		st.Reason = "already at the first question"
		return jsonResult(st, false), nil
	}
	return jsonResult(stateOf(id, eng), false), nil
}

// HandleStatus implements the wizard/status MCP tool.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, eng, res := h.session(req)
	if res != nil {
		return res, nil
	}
	st := stateOf(id, eng)
	st.Answers = eng.Answers()
	return jsonResult(st, false), nil
}

func (h *Handlers) session(req mcp.CallToolRequest) (string, *wizard.Engine, *mcp.CallToolResult) {
	id, _ := req.GetArguments()["session"].(string)
	if id == "" {
		return "", nil, errorResult("session argument is required")
	}
	eng, ok := h.sessions.Get(id)
	if !ok {
		return "", nil, errorResult(fmt.Sprintf("unknown session %q; call wizard/start first", id))
	}
	return id, eng, nil
}

// state is the JSON view of a session returned by every session tool.
type state struct {
	Session  string          `json:"session"`
	Catalog  string          `json:"catalog"`
	Index    int             `json:"index"`
	Total    int             `json:"total"`
	Complete bool            `json:"complete"`
	Resumed  bool            `json:"resumed,omitempty"`
	Outcome  string          `json:"outcome,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Step     *stepView       `json:"step,omitempty"`
	Answers  catalog.Answers `json:"answers,omitempty"`
}

type stepView struct {
	ID       string       `json:"id"`
	Prompt   string       `json:"prompt"`
	Kind     catalog.Kind `json:"kind"`
	Required bool         `json:"required"`
	Options  []optionView `json:"options,omitempty"`
	Current  any          `json:"current,omitempty"`
}

type optionView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func stateOf(id string, eng *wizard.Engine) state {
	st := state{
		Session:  id,
		Catalog:  eng.Catalog().Name(),
		Index:    eng.Index(),
		Total:    len(eng.Steps()),
		Complete: eng.Complete(),
	}
	if cur, ok := eng.CurrentStep(); ok {
		sv := &stepView{ID: cur.ID, Prompt: cur.Prompt, Kind: cur.Kind, Required: cur.Required}
		for _, o := range eng.Options() {
			sv.Options = append(sv.Options, optionView{Value: o.Val(), Label: o.Label})
		}
		sv.Current, _ = eng.Answer(cur.ID)
		st.Step = sv
	}
	return st
}

func formatErrors(errs []*catalog.ValidationError) string {
	var b strings.Builder
	for _, e := range errs {
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func jsonResult(v any, isErr bool) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: isErr,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
