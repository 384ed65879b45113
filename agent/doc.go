// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent is the client library for programs that join a
// platform as agents.
//
// [New] performs the bootstrap conversation: it asks the AMS for the
// platform description, listens as service "ap.<name>", and registers
// "<name>@<platform>" with the AMS. The returned [Agent] then speaks
// the client side of every platform conversation:
//
//	a, err := agent.New(ctx, agent.Config{Name: "alice", SocketDir: dir}, logger)
//	if err != nil {
//		return err
//	}
//	defer a.Finish(ctx)
//
//	err = a.Send(ctx, acl.Message{
//		Performative: acl.PerformativeInform,
//		Receivers:    []acl.AgentIdentifier{{Name: "bob"}},
//		Content:      "(weather sunny)",
//	})
//
// Incoming messages are queued for [Agent.Receive] unless a callback
// is installed with [Agent.OnMessage]. The listener also serves the
// management endpoint: ping is logged and terminate releases
// [Agent.Run].
//
// Failures carry the platform's error kinds from lib/acl, so callers
// test them with errors.Is.
package agent
