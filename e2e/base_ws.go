// Package e2e drives scenarios against a running server over its real
// WebSocket endpoint. Scenarios skip themselves unless SERVER_ADDR is
// set, so the package is inert under a plain `go test ./...`.
package e2e

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

const readTimeout = 5 * time.Second

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// SkipWithoutServer guards scenarios that need a live server.
func (s *BaseWsSuite) SkipWithoutServer() {
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping live scenario")
	}
}

// WsClient is one connected chat participant in a scenario.
type WsClient struct {
	suite *BaseWsSuite
	name  string
	conn  *websocket.Conn
}

// Connect dials the WebSocket endpoint with a colorized header in the
// logs, like the other suite helpers.
func (s *BaseWsSuite) Connect(name string) *WsClient {
	header := fmt.Sprintf("  ====== %s connects ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	u := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err, "Failed to dial %s", u.String())

	return &WsClient{suite: s, name: name, conn: conn}
}

func (c *WsClient) Close() {
	_ = c.conn.Close()
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Send emits one named event with its payload.
func (c *WsClient) Send(event string, payload any) {
	data, err := json.Marshal(payload)
	c.suite.Require().NoError(err)

	f := frame{Event: event, Data: data}
	if c.suite.Config.DebugJSON {
		raw, _ := json.Marshal(f)
		c.suite.T().Logf("%s >> %s", c.name, raw)
	}
	c.suite.Require().NoError(c.conn.WriteJSON(f))
}

// Expect reads frames until one matches the event name, decoding its
// payload into out (which may be nil). Unrelated frames such as
// presence broadcasts are logged and skipped.
func (c *WsClient) Expect(event string, out any) {
	deadline := time.Now().Add(readTimeout)
	for {
		c.suite.Require().NoError(c.conn.SetReadDeadline(deadline))

		var f frame
		err := c.conn.ReadJSON(&f)
		c.suite.Require().NoError(err, "%s waiting for %q", c.name, event)

		if c.suite.Config.DebugJSON {
			c.suite.T().Logf("%s << %s %s", c.name, f.Event, f.Data)
		}
		if f.Event != event {
			continue
		}
		if out != nil {
			c.suite.Require().NoError(json.Unmarshal(f.Data, out))
		}
		return
	}
}
