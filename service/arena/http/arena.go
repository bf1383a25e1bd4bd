// Package http implements the arena contract against the job queue game
// REST service.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viant/jobqueue/internal/logging"
	"github.com/viant/jobqueue/model"
	"github.com/viant/jobqueue/service/arena"
	"github.com/viant/jobqueue/tracing"
	"github.com/viant/toolbox"
)

// DefaultBaseURL is the public game endpoint.
const DefaultBaseURL = "http://job-queue-dev.elasticbeanstalk.com/games"

// Config represents the arena client configuration
type Config struct {
	BaseURL string        `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Arena is an arena client talking to the game service over HTTP.
type Arena struct {
	baseURL  string
	client   *http.Client
	mu       sync.RWMutex
	sessions map[string]*model.Session
	logger   logrus.FieldLogger
}

var _ arena.Arena = (*Arena)(nil)

func (a *Arena) CreateSession(ctx context.Context, long bool) (*model.Session, error) {
	form := url.Values{"long": {strconv.FormatBool(long)}}
	resp, err := a.call(ctx, "createSession", http.MethodPost, a.baseURL, form)
	if err != nil {
		return nil, err
	}
	id := asID(resp["id"])
	if id == "" {
		return nil, model.NewExternalCallError("createSession", fmt.Errorf("missing game id"))
	}
	session := model.NewSession(id, !long)
	if short, ok := resp["short"]; ok {
		session.Short = toolbox.AsBoolean(short)
	}
	a.mu.Lock()
	a.sessions[id] = session
	a.mu.Unlock()
	ret := *session
	return &ret, nil
}

// NextTurn advances the game. A turn number past the session horizon is
// reported as arena.ErrHorizonExceeded.
func (a *Arena) NextTurn(ctx context.Context, sessionID string) (*model.Turn, error) {
	session, err := a.session("nextTurn", sessionID)
	if err != nil {
		return nil, err
	}
	resp, err := a.call(ctx, "nextTurn", http.MethodGet, a.gameURL(sessionID, "next_turn"), nil)
	if err != nil {
		return nil, err
	}
	ret := &model.Turn{Current: toolbox.AsInt(resp["current_turn"])}
	if ret.Current > session.TotalTurns {
		return nil, arena.ErrHorizonExceeded
	}
	jobs, _ := resp["jobs"].([]interface{})
	for _, item := range jobs {
		record := toolbox.AsMap(item)
		spec := &model.JobSpec{
			ID:               model.JobID(toolbox.AsInt(record["id"])),
			RequiredCapacity: toolbox.AsInt(record["memory_required"]),
			TurnsRequired:    toolbox.AsInt(record["turns_required"]),
			ArrivalTurn:      ret.Current,
		}
		if turn, ok := record["turn"]; ok && turn != nil {
			spec.ArrivalTurn = toolbox.AsInt(turn)
		}
		ret.Jobs = append(ret.Jobs, spec)
	}
	return ret, nil
}

func (a *Arena) CreateMachine(ctx context.Context, sessionID string) (model.MachineID, error) {
	resp, err := a.call(ctx, "createMachine", http.MethodPost, a.gameURL(sessionID, "machines"), nil)
	if err != nil {
		return 0, err
	}
	id, ok := resp["id"]
	if !ok {
		return 0, model.NewExternalCallError("createMachine", fmt.Errorf("missing machine id"))
	}
	return model.MachineID(toolbox.AsInt(id)), nil
}

// TerminateMachine deletes a machine; a machine the game no longer knows is
// treated as terminated.
func (a *Arena) TerminateMachine(ctx context.Context, sessionID string, machineID model.MachineID) error {
	_, err := a.call(ctx, "terminateMachine", http.MethodDelete, a.gameURL(sessionID, "machines", strconv.Itoa(int(machineID))), nil)
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

func (a *Arena) AssignJob(ctx context.Context, sessionID string, machineID model.MachineID, jobID model.JobID) error {
	form := url.Values{"job_ids": {strconv.Itoa(int(jobID))}}
	_, err := a.call(ctx, "assignJob", http.MethodPost, a.gameURL(sessionID, "machines", strconv.Itoa(int(machineID)), "job_assignments"), form)
	return err
}

func (a *Arena) Status(ctx context.Context, sessionID string) (*model.Status, error) {
	resp, err := a.call(ctx, "status", http.MethodGet, a.gameURL(sessionID), nil)
	if err != nil {
		return nil, err
	}
	ret := &model.Status{
		Completed:  toolbox.AsBoolean(resp["completed"]) || strings.EqualFold(toolbox.AsString(resp["status"]), "completed"),
		Cost:       toolbox.AsInt(resp["cost"]),
		DelayTurns: toolbox.AsInt(resp["delay_turns"]),
	}
	return ret, nil
}

// StatusError represents a non 2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func isNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// asID formats a loosely typed JSON id; numbers decode as float64.
func asID(value interface{}) string {
	if value == nil {
		return ""
	}
	if number, ok := value.(float64); ok {
		return strconv.FormatInt(int64(number), 10)
	}
	return toolbox.AsString(value)
}

func (a *Arena) call(ctx context.Context, op, method, URL string, form url.Values) (map[string]interface{}, error) {
	ctx, span := tracing.StartSpan(ctx, "arena."+op, tracing.KindArena)
	ret, code, err := a.do(ctx, method, URL, form)
	span.WithRequest(method, URL, code)
	tracing.EndSpan(span, err)
	if err != nil {
		a.logger.WithFields(logrus.Fields{"op": op, "url": URL}).WithError(err).Warn("arena call failed")
		return nil, model.NewExternalCallError(op, err)
	}
	return ret, nil
}

func (a *Arena) do(ctx context.Context, method, URL string, form url.Values) (map[string]interface{}, int, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, URL, body)
	if err != nil {
		return nil, 0, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	ret := map[string]interface{}{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return ret, resp.StatusCode, nil
	}
	if err = json.Unmarshal(data, &ret); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return ret, resp.StatusCode, nil
}

func (a *Arena) session(op, sessionID string) (*model.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	session, ok := a.sessions[sessionID]
	if !ok {
		return nil, model.NewExternalCallError(op, fmt.Errorf("unknown session: %s", sessionID))
	}
	return session, nil
}

func (a *Arena) gameURL(sessionID string, elements ...string) string {
	parts := append([]string{strings.TrimRight(a.baseURL, "/"), url.PathEscape(sessionID)}, elements...)
	return strings.Join(parts, "/")
}

// New creates an arena client. The base URL comes from config; there is no
// package level default state.
func New(config Config, opts ...Option) *Arena {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ret := &Arena{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: config.Timeout},
		sessions: map[string]*model.Session{},
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
