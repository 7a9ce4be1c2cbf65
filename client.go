// Package workflowsdk is the top-level entry point application code
// imports: it wires the Transport, Event Channel, and Board Repository
// collaborators (§6) into a Client that loads documents into Workflow
// Handles, mirroring how the teacher's services.Service wires Storage
// and its HTTP clients behind one constructor.
package workflowsdk

import (
	"fmt"
	"net/http"
	"strings"

	"workflow-sdk/pkg/clients/boards"
	"workflow-sdk/pkg/clients/eventchannel"
	"workflow-sdk/pkg/clients/transport"
	"workflow-sdk/pkg/config"
	"workflow-sdk/services/document"
	"workflow-sdk/services/fields"
	"workflow-sdk/services/tracker"
	"workflow-sdk/services/workflow"
)

// Client is the SDK's single entry point: construct one per server, then
// call LoadDocument for every workflow document to drive.
type Client struct {
	Transport transport.Transport
	Channel   eventchannel.Channel
	Boards    boards.Repository
	Registry  *fields.Registry

	trackerOpts tracker.Options
}

// New builds a Client from Options, constructing the production HTTP
// transport, an optional websocket event channel (derived from BaseURL,
// skipped when EventMode is "polling"), and the board repository.
// registry should normally be built with fields.NewRegistry plus
// fields.RegisterBuiltins; callers with custom field kinds pass their
// own fully-registered Registry.
func New(opts config.Options, registry *fields.Registry) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("workflowsdk: base_url is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("workflowsdk: registry is nil")
	}
	registry.SetStrict(opts.StrictTypes)

	httpClient := &http.Client{Timeout: opts.Timeout}
	tr := transport.NewHTTPTransport(opts.BaseURL,
		transport.WithBearer(opts.Bearer),
		transport.WithHTTPClient(httpClient),
		transport.WithMaxRetries(opts.MaxRetries),
	)

	var ch eventchannel.Channel
	if opts.EventMode != "polling" {
		ch = eventchannel.NewWebsocketChannel(toWebsocketURL(opts.BaseURL))
	}

	boardRepo := boards.NewHTTPRepository(opts.BaseURL, opts.Bearer, httpClient)

	return &Client{
		Transport: tr,
		Channel:   ch,
		Boards:    boardRepo,
		Registry:  registry,
		trackerOpts: tracker.Options{
			Mode:             tracker.EventMode(opts.EventMode),
			PollIntervalInit: opts.PollIntervalInit(),
			PollIntervalMax:  opts.PollIntervalMax(),
		},
	}, nil
}

// LoadDocument parses a workflow document and returns a ready-to-use
// Handle bound to this Client's collaborators.
func (c *Client) LoadDocument(data []byte) (*workflow.Handle, error) {
	snap, err := document.Load(data)
	if err != nil {
		return nil, err
	}
	return workflow.NewHandle(snap, c.Registry, c.Transport, c.Channel, c.trackerOpts)
}

func toWebsocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}
