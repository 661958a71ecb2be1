package api

import (
	"context"
	"net/http"
	"strconv"
)

type chatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
}

type chatReply struct {
	Reply string `json:"reply"`
}

// Chat sends a stateless message with prior turns. A missing reply is "".
func (c *Client) Chat(ctx context.Context, message string, history []ChatTurn) (string, error) {
	if history == nil {
		history = []ChatTurn{}
	}
	var out chatReply
	err := c.do(ctx, call{endpoint: "chat", method: http.MethodPost, path: "/chat",
		in: chatRequest{Message: message, History: history}, out: &out})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (c *Client) CreateChatSession(ctx context.Context, in NewChatSession) (*ChatSession, error) {
	var out ChatSession
	err := c.do(ctx, call{endpoint: "chat_sessions_create", method: http.MethodPost, path: "/chat/sessions", in: in, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListChatSessions(ctx context.Context) ([]ChatSession, error) {
	var out []ChatSession
	if err := c.do(ctx, call{endpoint: "chat_sessions_list", method: http.MethodGet, path: "/chat/sessions", out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []ChatSession{}
	}
	return out, nil
}

func (c *Client) RenameChatSession(ctx context.Context, id int64, title string) (*OKResult, error) {
	var out OKResult
	err := c.do(ctx, call{endpoint: "chat_sessions_rename", method: http.MethodPatch, path: sessionPath(id),
		in: map[string]string{"title": title}, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteChatSession(ctx context.Context, id int64) (*OKResult, error) {
	var out OKResult
	if err := c.do(ctx, call{endpoint: "chat_sessions_delete", method: http.MethodDelete, path: sessionPath(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSessionMessages(ctx context.Context, id int64) ([]ChatMessage, error) {
	var out []ChatMessage
	if err := c.do(ctx, call{endpoint: "chat_messages", method: http.MethodGet, path: sessionPath(id) + "/messages", out: &out}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []ChatMessage{}
	}
	return out, nil
}

// SendInSession posts a message to a stored session; the server keeps history.
func (c *Client) SendInSession(ctx context.Context, id int64, message string) (string, error) {
	var out chatReply
	err := c.do(ctx, call{endpoint: "chat_send", method: http.MethodPost, path: sessionPath(id) + "/send",
		in: chatRequest{Message: message, History: []ChatTurn{}}, out: &out})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

func sessionPath(id int64) string {
	return "/chat/sessions/" + strconv.FormatInt(id, 10)
}
