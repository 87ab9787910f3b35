package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for guru resources.
	uriScheme = "guru://"

	// sessionListLimit caps the guru://sessions listing.
	sessionListLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Corpus != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "corpus",
			Name:        "corpus",
			Description: "Statistics of the documents the server answers from",
			MIMEType:    "application/json",
		}, s.handleCorpusResource)
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Open chat sessions and, when transcripts are kept, past ones",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}/transcript",
		Name:        "session-transcript",
		Description: "Questions and answers of one session",
		MIMEType:    "application/json",
	}, s.handleTranscriptResource)
}

type sessionInfo struct {
	ID        string `json:"id"`
	Open      bool   `json:"open"`
	State     string `json:"state,omitempty"`
	Turns     int    `json:"turns,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
	EndedAt   string `json:"ended_at,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

type turnInfo struct {
	Seq      int    `json:"seq"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	AskedAt  string `json:"asked_at,omitempty"`
}

// handleCorpusResource reports corpus statistics.
func (s *Server) handleCorpusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Corpus.Inspect(ctx, s.ports.CorpusDirectory)
	if err != nil {
		return nil, fmt.Errorf("inspecting corpus: %w", err)
	}
	return jsonResource(req.Params.URI, toStatsOutput(stats))
}

// handleSessionsResource lists open sessions first, then recorded ones.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := []sessionInfo{}
	seen := make(map[string]bool)

	s.mu.Lock()
	for id, sess := range s.sessions {
		infos = append(infos, sessionInfo{
			ID:      id,
			Open:    true,
			State:   sess.State().String(),
			Turns:   len(sess.Turns()),
			Summary: sess.Summary().String(),
		})
		seen[id] = true
	}
	s.mu.Unlock()

	if s.ports.History != nil {
		records, err := s.ports.History.Sessions(ctx, sessionListLimit)
		if err != nil {
			return nil, fmt.Errorf("listing sessions: %w", err)
		}
		for _, r := range records {
			if seen[r.ID] {
				continue
			}
			infos = append(infos, sessionInfo{
				ID:        r.ID,
				StartedAt: formatTime(r.StartedAt),
				EndedAt:   formatTime(r.EndedAt),
				Summary:   r.Summary.String(),
			})
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handleTranscriptResource returns the turns of a live or recorded session.
func (s *Server) handleTranscriptResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractSessionID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	var turns []domain.ConversationTurn
	if sess, err := s.session(id); err == nil {
		turns = sess.Turns()
	} else {
		// A closed session without turns has nothing to show.
		if s.ports.History != nil {
			turns, err = s.ports.History.Turns(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("reading transcript: %w", err)
			}
		}
		if len(turns) == 0 {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
	}

	infos := make([]turnInfo, len(turns))
	for i, t := range turns {
		infos[i] = turnInfo{
			Seq:      t.Seq,
			Question: t.Question,
			Answer:   t.Answer,
			AskedAt:  formatTime(t.AskedAt),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// extractSessionID extracts the session ID from a URI like
// guru://sessions/{sessionId}/transcript.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"
	const suffix = "/transcript"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
