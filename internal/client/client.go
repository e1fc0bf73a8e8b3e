// Package client talks to a VoiceRoom server: the REST API and the room socket.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

var ErrUnauthorized = errors.New("unauthorized")

// Client holds the server address and the bearer token of the logged in user.
type Client struct {
	BaseURL string
	Token   string

	rest *resty.Client
}

func New(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: baseURL,
		rest: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (c *Client) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return c.authenticate(ctx, "/api/register", username, password)
}

// Login stores the returned token for later calls and the socket handshake.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.User, error) {
	return c.authenticate(ctx, "/api/login", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (*domain.User, error) {
	var resp authResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, resty.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	c.Token = resp.Token
	return resp.User, nil
}

func (c *Client) CreateRoom(ctx context.Context) (*domain.Room, error) {
	var room domain.Room
	if err := c.do(ctx, resty.MethodPost, "/api/rooms", nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoom maps the server's error codes back to the domain errors.
func (c *Client) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	if err := c.do(ctx, resty.MethodGet, "/api/rooms/"+url.PathEscape(id), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var apiErr protocol.APIError
	req := c.rest.R().SetContext(ctx).SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	if c.Token != "" {
		req.SetAuthToken(c.Token)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), apiErr)
	}
	return nil
}

func statusError(status int, e protocol.APIError) error {
	switch e.Code {
	case protocol.CodeInvalidRoomID:
		return fmt.Errorf("%w: %s", domain.ErrInvalidRoomID, e.Error)
	case protocol.CodeRoomNotFound:
		return fmt.Errorf("%w: %s", domain.ErrRoomNotFound, e.Error)
	case protocol.CodeUnauthenticated, protocol.CodeInvalidCredentials:
		return fmt.Errorf("%w: %s", ErrUnauthorized, e.Error)
	case protocol.CodeUserExists:
		return fmt.Errorf("%w: %s", domain.ErrUserExists, e.Error)
	}
	if e.Code == "" {
		return fmt.Errorf("server returned %d: %s", status, e.Error)
	}
	return fmt.Errorf("server returned %d (%s): %s", status, e.Code, e.Error)
}
