package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"chessarena/internal/client/display"
)

// pollTimeout covers the server's long-poll window
const pollTimeout = 35 * time.Second

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Verbose    bool
	Out        io.Writer
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Out: os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) doRequest(method, path string, body any, result any) error {
	return c.do(c.HTTPClient, method, path, body, result)
}

func (c *Client) do(hc *http.Client, method, path string, body any, result any) error {
	out := c.Out
	if out == nil {
		out = io.Discard
	}

	var bodyReader io.Reader
	var bodyData []byte
	if body != nil {
		var err error
		if bodyData, err = json.Marshal(body); err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyData)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	fmt.Fprintf(out, "\n%s[API] %s %s%s\n", display.Blue, method, path, display.Reset)
	if len(bodyData) > 0 {
		if c.Verbose {
			fmt.Fprintf(out, "%sRequest Body:%s\n", display.Cyan, display.Reset)
			var pretty any
			json.Unmarshal(bodyData, &pretty)
			display.PrettyPrintJSON(out, pretty)
		} else {
			fmt.Fprintf(out, "%s%s%s\n", display.Blue, bodyData, display.Reset)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		fmt.Fprintf(out, "%s[ERROR] %s%s\n", display.Red, err.Error(), display.Reset)
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	statusColor := display.Green
	if resp.StatusCode >= 400 {
		statusColor = display.Red
	}
	fmt.Fprintf(out, "%s[%d %s]%s\n", statusColor, resp.StatusCode, http.StatusText(resp.StatusCode), display.Reset)

	if c.Verbose && len(respBody) > 0 {
		var pretty any
		if err := json.Unmarshal(respBody, &pretty); err == nil {
			fmt.Fprintf(out, "%sResponse Body:%s\n", display.Cyan, display.Reset)
			display.PrettyPrintJSON(out, pretty)
		} else {
			fmt.Fprintf(out, "%sResponse:%s\n%s\n", display.Cyan, display.Reset, respBody)
		}
	}

	if resp.StatusCode >= 400 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			statusErr.Response = &errResp
			if !c.Verbose && errResp.Details != "" {
				fmt.Fprintf(out, "%sDetails: %s%s\n", display.Red, errResp.Details, display.Reset)
			}
		} else if !c.Verbose && len(respBody) > 0 {
			fmt.Fprintf(out, "%s%s%s\n", display.Red, respBody, display.Reset)
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			fmt.Fprintf(out, "%sResponse parse error: %s%s\n", display.Red, err.Error(), display.Reset)
			fmt.Fprintf(out, "%sRaw response: %s%s\n", display.Green, respBody, display.Reset)
			return err
		}
	}

	return nil
}

func gamePath(gameID, suffix string) string {
	return "/api/v1/games/" + url.PathEscape(gameID) + suffix
}

// API Methods

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest("GET", "/health", nil, &resp)
	return &resp, err
}

func (c *Client) CreateGame(req *CreateGameRequest) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", "/api/v1/games", req, &resp)
	return &resp, err
}

func (c *Client) ImportGame(req *ImportGameRequest) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", "/api/v1/games/import", req, &resp)
	return &resp, err
}

func (c *Client) GetGame(gameID string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("GET", gamePath(gameID, ""), nil, &resp)
	return &resp, err
}

// GetGameWithPoll blocks until the game's move count differs from moveCount
// or the server's wait window closes
func (c *Client) GetGameWithPoll(gameID string, moveCount int) (*GameResponse, error) {
	var resp GameResponse
	path := gamePath(gameID, fmt.Sprintf("?wait=true&moveCount=%d", moveCount))
	hc := *c.HTTPClient
	if hc.Timeout != 0 && hc.Timeout < pollTimeout {
		hc.Timeout = pollTimeout
	}
	err := c.do(&hc, "GET", path, nil, &resp)
	return &resp, err
}

func (c *Client) DeleteGame(gameID string) error {
	return c.doRequest("DELETE", gamePath(gameID, ""), nil, nil)
}

func (c *Client) ConfigurePlayers(gameID string, req *ConfigurePlayersRequest) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("PUT", gamePath(gameID, "/players"), req, &resp)
	return &resp, err
}

// MakeMove submits a human move, a non-negative ply pins it to that move count
func (c *Client) MakeMove(gameID string, from, to, promotion string, ply int) (*GameResponse, error) {
	req := &MoveRequest{From: from, To: to, Promotion: promotion}
	if ply >= 0 {
		req.Ply = &ply
	}
	var resp GameResponse
	err := c.doRequest("POST", gamePath(gameID, "/moves"), req, &resp)
	return &resp, err
}

// ComputerMove asks the server to start the bot, the response is pending
func (c *Client) ComputerMove(gameID string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", gamePath(gameID, "/computer"), nil, &resp)
	return &resp, err
}

func (c *Client) UndoMoves(gameID string, count int) (*GameResponse, error) {
	req := &UndoRequest{Count: count}
	var resp GameResponse
	err := c.doRequest("POST", gamePath(gameID, "/undo"), req, &resp)
	return &resp, err
}

func (c *Client) GetBoard(gameID string) (*BoardResponse, error) {
	var resp BoardResponse
	err := c.doRequest("GET", gamePath(gameID, "/board"), nil, &resp)
	return &resp, err
}

func (c *Client) GetLegalMoves(gameID, square string) (*LegalMovesResponse, error) {
	var resp LegalMovesResponse
	err := c.doRequest("GET", gamePath(gameID, "/legal?square="+url.QueryEscape(square)), nil, &resp)
	return &resp, err
}

func (c *Client) GetMoves(gameID string) (*MoveListResponse, error) {
	var resp MoveListResponse
	err := c.doRequest("GET", gamePath(gameID, "/moves"), nil, &resp)
	return &resp, err
}

func (c *Client) GetPGN(gameID string) (*PGNResponse, error) {
	var resp PGNResponse
	err := c.doRequest("GET", gamePath(gameID, "/pgn"), nil, &resp)
	return &resp, err
}

// RawRequest performs a raw HTTP request for debugging purposes
func (c *Client) RawRequest(method, path string, body string) error {
	var bodyData any
	if body != "" {
		if err := json.Unmarshal([]byte(body), &bodyData); err != nil {
			bodyData = body
		}
	}
	return c.doRequest(method, path, bodyData, nil)
}
