package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"vscsfarm/internal/common/container"
	"vscsfarm/internal/farm/identity"
	pkgerrors "vscsfarm/pkg/errors"
	"vscsfarm/pkg/session"
	"vscsfarm/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	DefaultImage        = "openvscode-server-base"
	DefaultContainerURL = "http://localhost:{port}?tkn={token}"
	DefaultAPIRoot      = "https://hpcgame.pku.edu.cn/api"
	DefaultEditorPort   = 3000

	workspaceMount = "/home/workspace:z,cached"
	launchScript   = `exec ${OPENVSCODE_SERVER_ROOT}/bin/openvscode-server "${@}"`

	// connectionTokenArg is the position of the token in launchCommand.
	connectionTokenArg = 5
)

// FarmConfig is the controller configuration.
type FarmConfig struct {
	Image          string
	ContainerURL   string
	APIRoot        string
	EditorPort     int
	EnvPath        string
	DataDir        string
	SuppressErrors bool
}

func (c *FarmConfig) applyDefaults() {
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.ContainerURL == "" {
		c.ContainerURL = DefaultContainerURL
	}
	if c.APIRoot == "" {
		c.APIRoot = DefaultAPIRoot
	}
	if c.EditorPort == 0 {
		c.EditorPort = DefaultEditorPort
	}
	if c.EnvPath == "" {
		c.EnvPath = session.DefaultPath
	}
}

// ContainerView is one row of the container listing.
type ContainerView struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Title     string `json:"title,omitempty"`
	ContestID string `json:"contestId,omitempty"`
}

// SessionService drives the container runtime for editor sessions. It keeps
// no state of its own; the runtime is the source of truth.
type SessionService struct {
	cfg      FarmConfig
	runtime  container.Runtime
	titles   TitleDirectory
	newToken func() (string, error)
}

func NewSessionService(cfg FarmConfig, runtime container.Runtime, titles TitleDirectory) *SessionService {
	cfg.applyDefaults()
	return &SessionService{
		cfg:      cfg,
		runtime:  runtime,
		titles:   titles,
		newToken: newConnectionToken,
	}
}

// Config returns the effective configuration.
func (s *SessionService) Config() FarmConfig {
	return s.cfg
}

// List returns every container labelled with userID, in runtime order.
func (s *SessionService) List(ctx context.Context, userID, token string) ([]ContainerView, error) {
	if err := identity.ValidateUserID(userID); err != nil {
		return nil, err
	}
	summaries, err := s.runtime.ListByLabel(ctx, identity.LabelUserID, userID)
	if err != nil {
		if s.cfg.SuppressErrors {
			logger.Warn(ctx, "container list failed, showing none", zap.Error(err))
			return []ContainerView{}, nil
		}
		return nil, pkgerrors.RuntimeError(err, "list", "")
	}

	views := make([]ContainerView, 0, len(summaries))
	var userTitle *string
	for _, item := range summaries {
		view := ContainerView{Name: item.Name, Status: item.Status}
		id, err := identity.Parse(item.Name)
		if err != nil {
			views = append(views, view)
			continue
		}
		switch id.Kind() {
		case identity.KindUser:
			if userTitle == nil {
				title, err := s.titles.UserTitle(ctx, token, userID)
				if err != nil {
					return nil, err
				}
				userTitle = &title
			}
			view.Title = *userTitle
		case identity.KindContest:
			title, err := s.titles.ContestTitle(ctx, token, userID, id.ContestID())
			if err != nil {
				return nil, err
			}
			view.Title = title
			view.ContestID = id.ContestID()
		}
		views = append(views, view)
	}
	return views, nil
}

// Start ensures the container for id is running, hands it a fresh session
// environment and returns the editor URL.
func (s *SessionService) Start(ctx context.Context, id identity.Identity, token string) (string, error) {
	if !id.Valid() {
		return "", pkgerrors.New(pkgerrors.ContainerNameInvalid)
	}
	name := id.Name()

	connToken, err := s.newToken()
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}
	err = s.runtime.Create(ctx, s.createSpec(id, connToken))
	if errors.Is(err, container.ErrConflict) {
		logger.Debug(ctx, "container already exists", zap.String("container", name))
		err = nil
	}
	if err := s.check(ctx, "create", name, err); err != nil {
		return "", err
	}

	if err := s.check(ctx, "start", name, s.runtime.Start(ctx, name)); err != nil {
		return "", err
	}

	writeEnv, err := s.envCommand(id, token)
	if err != nil {
		return "", err
	}
	if err := s.check(ctx, "exec", name, s.runtime.Exec(ctx, name, writeEnv)); err != nil {
		return "", err
	}

	port, editorToken, err := s.inspect(ctx, name)
	if err != nil {
		return "", err
	}

	url := strings.ReplaceAll(s.cfg.ContainerURL, "{port}", port)
	url = strings.ReplaceAll(url, "{token}", editorToken)
	logger.Info(ctx, "editor session started", zap.String("container", name), zap.String("port", port))
	return url, nil
}

// Stop stops the container for id. A missing container counts as stopped.
func (s *SessionService) Stop(ctx context.Context, id identity.Identity) error {
	if !id.Valid() {
		return pkgerrors.New(pkgerrors.ContainerNameInvalid)
	}
	name := id.Name()
	err := s.runtime.Stop(ctx, name)
	if errors.Is(err, container.ErrNotFound) {
		return nil
	}
	return s.check(ctx, "stop", name, err)
}

// Remove deletes the container for id with its volumes. A missing container
// counts as removed.
func (s *SessionService) Remove(ctx context.Context, id identity.Identity) error {
	if !id.Valid() {
		return pkgerrors.New(pkgerrors.ContainerNameInvalid)
	}
	name := id.Name()
	err := s.runtime.Remove(ctx, name)
	if errors.Is(err, container.ErrNotFound) {
		return nil
	}
	if err := s.check(ctx, "remove", name, err); err != nil {
		return err
	}
	logger.Info(ctx, "editor container removed", zap.String("container", name))
	return nil
}

func (s *SessionService) createSpec(id identity.Identity, connToken string) container.CreateSpec {
	labels := make([]container.Label, 0, 2)
	for _, l := range id.Labels() {
		labels = append(labels, container.Label{Key: l.Key, Value: l.Value})
	}
	entrypoint := ""
	spec := container.CreateSpec{
		Name:         id.Name(),
		Image:        s.cfg.Image,
		Labels:       labels,
		Init:         true,
		Entrypoint:   &entrypoint,
		PublishPorts: []int{s.cfg.EditorPort},
		Cmd:          launchCommand(connToken),
	}
	if s.cfg.DataDir != "" {
		spec.Volumes = []string{filepath.Join(s.cfg.DataDir, id.Name()) + ":" + workspaceMount}
	}
	return spec
}

func (s *SessionService) envCommand(id identity.Identity, token string) ([]string, error) {
	data, err := session.Encode(session.Env{
		Token:     token,
		ContestID: id.ContestID(),
		APIRoot:   s.cfg.APIRoot,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return []string{"sh", "-c", fmt.Sprintf("echo %s | base64 -d > %s", encoded, s.cfg.EnvPath)}, nil
}

// inspect recovers the published host port and the connection token the
// container was created with. It is never suppressed: without it there is no
// URL to hand out.
func (s *SessionService) inspect(ctx context.Context, name string) (string, string, error) {
	format := fmt.Sprintf(`{{(index (index .NetworkSettings.Ports "%d/tcp") 0).HostPort}} {{ index .Config.Cmd %d }}`,
		s.cfg.EditorPort, connectionTokenArg)
	out, err := s.runtime.Inspect(ctx, name, format)
	if err != nil {
		return "", "", pkgerrors.Wrap(err, pkgerrors.ContainerNotRunning).
			WithDetail("container", name)
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return "", "", pkgerrors.New(pkgerrors.ContainerNotRunning).
			WithMessage("unexpected container inspection output").
			WithDetail("container", name)
	}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return "", "", pkgerrors.New(pkgerrors.ContainerNotRunning).
			WithMessage("editor port is not published").
			WithDetail("container", name)
	}
	return fields[0], fields[1], nil
}

// check turns a runtime failure into an error, or logs it when failures are
// suppressed.
func (s *SessionService) check(ctx context.Context, op, name string, err error) error {
	if err == nil {
		return nil
	}
	if s.cfg.SuppressErrors {
		logger.Warn(ctx, "container runtime call failed, continuing",
			zap.String("op", op), zap.String("container", name), zap.Error(err))
		return nil
	}
	return pkgerrors.RuntimeError(err, op, name)
}

func launchCommand(connToken string) []string {
	return []string{
		"sh", "-c", launchScript, "--",
		"--connection-token", connToken,
		"--host", "0.0.0.0",
		"--enable-remote-auto-shutdown",
	}
}

func newConnectionToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate connection token failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
