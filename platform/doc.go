// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package platform runs the agent platform: the identity directory
// (AMS), the capability directory (DF), and the message router (MTS)
// served on one Unix socket.
//
// The platform socket exposes four object paths:
//
//	/ap/AMS        ping printDirectory register deregister modify search getDescription
//	/ap/DF         ping printDirectory register deregister modify search
//	/ap/MTS        ping agentMessage
//	/ap/terminate  terminate
//
// The three services share one serialization domain. The router
// resolves recipients against the in-process identity directory, and
// the capability directory checks registrations against it, without
// going through the socket.
//
// At construction the platform registers its own services as
// "AMS@<platform>", "DF@<platform>" and "MTS@<platform>", so agents can
// find them through an ordinary AMS search.
//
// With a state file configured, the directories are restored from the
// snapshot at startup and written back periodically and at shutdown.
package platform
