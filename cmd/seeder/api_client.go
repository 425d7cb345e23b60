package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	Message      string `json:"message"`
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Task struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Status   string   `json:"status"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags"`
	UserID   string   `json:"user_id"`
}

// APIError is a non-success answer from the server.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// RegisterUser creates a new user account with a unique name.
func (c *APIClient) RegisterUser(baseName, password string) (*User, string, error) {
	username := fmt.Sprintf("%s_%d", baseName, time.Now().UnixNano()%100000)

	body := map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusCreated, &result); err != nil {
		return nil, "", fmt.Errorf("register %s: %w", username, err)
	}

	return &result.User, result.AccessToken, nil
}

func (c *APIClient) Login(username, password string) (string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/login", body, "", http.StatusOK, &result); err != nil {
		return "", fmt.Errorf("login %s: %w", username, err)
	}
	return result.AccessToken, nil
}

func (c *APIClient) CreateTask(token, title, priority string, tags []string) (*Task, error) {
	body := map[string]interface{}{
		"title":    title,
		"priority": priority,
		"tags":     tags,
	}

	var task Task
	if err := c.do(http.MethodPost, "/tasks", body, token, http.StatusCreated, &task); err != nil {
		return nil, fmt.Errorf("create task %q: %w", title, err)
	}
	return &task, nil
}

func (c *APIClient) GetTask(token, id string) (*Task, error) {
	var task Task
	if err := c.do(http.MethodGet, "/tasks/"+id, nil, token, http.StatusOK, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *APIClient) UpdateTaskStatus(token, id, status string) error {
	body := map[string]string{"status": status}
	return c.do(http.MethodPatch, "/tasks/"+id+"/status", body, token, http.StatusOK, nil)
}

func (c *APIClient) DeleteTask(token, id string) error {
	return c.do(http.MethodDelete, "/tasks/"+id, nil, token, http.StatusNoContent, nil)
}

// HTTP helpers

func (c *APIClient) do(method, path string, body interface{}, token string, want int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(bodyBytes))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
