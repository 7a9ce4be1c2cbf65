package main

import (
	"context"
	"time"

	workflowsdk "workflow-sdk"
	"workflow-sdk/pkg/config"
	"workflow-sdk/services/discovery"
	"workflow-sdk/services/document"
	"workflow-sdk/services/fields"
	"workflow-sdk/services/tracker"
	"workflow-sdk/services/workflow"
)

func newClient(opts config.Options, registry *fields.Registry) (*workflowsdk.Client, error) {
	return workflowsdk.New(opts, registry)
}

func loadSnapshot(data []byte) (*document.Snapshot, error) {
	return document.Load(data)
}

func inspectDescriptors(snap *document.Snapshot, registry *fields.Registry) []discovery.Descriptor {
	return discovery.Discover(snap, registry)
}

func submitSync(ctx context.Context, h *workflow.Handle, timeout time.Duration, runs int) (*tracker.Tracker, tracker.Status, map[string][]tracker.AssetRef, error) {
	return h.SubmitSync(ctx, timeout, runs)
}
